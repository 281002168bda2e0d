package deploy

import (
	"errors"
	"testing"
)

func TestFor(t *testing.T) {
	for _, platform := range Platforms() {
		ins, err := For(platform)
		if err != nil {
			t.Errorf("For(%q) error = %v", platform, err)
			continue
		}
		if ins.Platform != platform {
			t.Errorf("For(%q).Platform = %q", platform, ins.Platform)
		}
		if len(ins.Steps) == 0 {
			t.Errorf("For(%q) has no steps", platform)
		}
	}
}

func TestFor_Unknown(t *testing.T) {
	for _, platform := range []string{"heroku", "", "VERCEL"} {
		if _, err := For(platform); !errors.Is(err, ErrUnknownPlatform) {
			t.Errorf("For(%q) error = %v, want ErrUnknownPlatform", platform, err)
		}
	}
}
