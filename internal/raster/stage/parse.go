package stage

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/rm-hull/circle-mockup/internal/raster"
)

const (
	defaultTolerance = 50
	defaultSigma     = 1.0
)

// Parse builds a stage list from a comma separated description such as
// "knockout:50,greyscale,blur:1.5,resample". Knockout always targets white.
func Parse(desc string) ([]raster.Stage, error) {
	var stages []raster.Stage
	for _, item := range strings.Split(desc, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, arg, hasArg := strings.Cut(item, ":")

		value := func(def float64) (float64, error) {
			if !hasArg {
				return def, nil
			}
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil || v <= 0 {
				return 0, fmt.Errorf("invalid argument %q for stage %s", arg, name)
			}
			return v, nil
		}

		switch strings.ToLower(name) {
		case "knockout":
			tol, err := value(defaultTolerance)
			if err != nil {
				return nil, err
			}
			stages = append(stages, &KnockoutStage{Tolerance: tol, Target: color.White})
		case "blur":
			sigma, err := value(defaultSigma)
			if err != nil {
				return nil, err
			}
			stages = append(stages, &GaussianBlurStage{Sigma: sigma})
		case "greyscale", "grayscale":
			stages = append(stages, &GreyscaleStage{})
		case "resample":
			stages = append(stages, &ResampleStage{})
		default:
			return nil, fmt.Errorf("unknown stage %q", name)
		}
	}
	return stages, nil
}
