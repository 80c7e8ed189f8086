package pgstore_test

import (
	"errors"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

func set(dst, v any) error {
	switch d := dst.(type) {
	case *string:
		*d = v.(string)
	case *notifications.Channel:
		*d = notifications.Channel(v.(string))
	case *map[string]string:
		*d = v.(map[string]string)
	case *time.Time:
		*d = v.(time.Time)
	default:
		return errors.New("fake: unsupported destination")
	}
	return nil
}
