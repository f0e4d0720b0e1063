package transform

import "fmt"

// Policy selects the geometric normalization applied to a downloaded
// image before tensor conversion.
type Policy int

const (
	// PolicyOriginal passes the image through as downloaded.
	PolicyOriginal Policy = iota
	// PolicyScale resizes so the longer edge equals the target size.
	PolicyScale
	// PolicyCrop resizes so the shorter edge equals the target size and
	// center-crops to a target×target square.
	PolicyCrop
	// PolicyFill resizes like PolicyScale and letterboxes onto a black
	// target×target canvas.
	PolicyFill
)

// String returns the stable name of the policy. The names participate
// in cache keys and must not change between releases.
func (p Policy) String() string {
	switch p {
	case PolicyOriginal:
		return "original"
	case PolicyScale:
		return "scale"
	case PolicyCrop:
		return "crop"
	case PolicyFill:
		return "fill"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "original":
		return PolicyOriginal, nil
	case "scale":
		return PolicyScale, nil
	case "crop":
		return PolicyCrop, nil
	case "fill":
		return PolicyFill, nil
	default:
		return 0, fmt.Errorf("unknown size policy %q", s)
	}
}
