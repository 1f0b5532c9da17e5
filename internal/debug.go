package internal

import (
	"fmt"
	"log"
	"os"
	"os/user"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN)`)

// Startup logs version, process owner and the configuration-relevant
// environment before a long running command begins.
func Startup() {
	ShowVersion()
	UserInfo()
	EnvironmentVars("GEMINI_", "IMAGEN_", "MOCKUP_", "GIN_")
}

func ShowVersion() {
	log.Printf("Version: %s\n", versioninfo.Short())
}

// EnvironmentVars logs variables whose names start with one of prefixes
// (all of them when none are given), masking anything that looks secret.
func EnvironmentVars(prefixes ...string) {
	log.Println("Environment variables")
	for _, kv := range maskedEnviron(os.Environ(), prefixes) {
		log.Printf("  %s\n", kv)
	}
}

func maskedEnviron(environ []string, prefixes []string) []string {
	out := make([]string, 0, len(environ))
	for _, entry := range environ {
		key, value, _ := strings.Cut(entry, "=")
		if len(prefixes) > 0 && !hasAnyPrefix(key, prefixes) {
			continue
		}
		if sensitiveRegex.MatchString(key) {
			value = "********"
		}
		out = append(out, fmt.Sprintf("%s: %s", key, value))
	}
	sort.Strings(out)
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func UserInfo() {
	log.Printf("PID: %d", os.Getpid())
	currentUser, err := user.Current()
	if err != nil {
		log.Printf("Error getting current user: %v", err)
	} else {
		log.Printf("User: uid=%s(%s) gid=%s", currentUser.Uid, currentUser.Username, currentUser.Gid)
	}
	groups, err := os.Getgroups()
	if err != nil {
		log.Printf("Error getting groups: %v", err)
		return
	}
	groupNames := make([]string, 0, len(groups))
	for _, gid := range groups {
		group, err := user.LookupGroupId(strconv.Itoa(gid))
		if err != nil {
			groupNames = append(groupNames, strconv.Itoa(gid)) // Append ID if name lookup fails
		} else {
			groupNames = append(groupNames, fmt.Sprintf("%s(%s)", group.Name, group.Gid))
		}
	}
	log.Printf("Groups: %v", groupNames)
}
