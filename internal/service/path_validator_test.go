package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProjectDir(t *testing.T) {
	t.Run("success - clean absolute path", func(t *testing.T) {
		assert.NoError(t, ValidateProjectDir("/srv/deployments/deployme"))
	})
	t.Run("failure - empty path", func(t *testing.T) {
		err := ValidateProjectDir("")

		var invalid InvalidProjectDirError
		assert.True(t, errors.As(err, &invalid))
		assert.Contains(t, invalid.Reason, "empty")
	})
	t.Run("failure - relative path", func(t *testing.T) {
		err := ValidateProjectDir("srv/deployments/deployme")

		var invalid InvalidProjectDirError
		assert.True(t, errors.As(err, &invalid))
		assert.Contains(t, invalid.Reason, "absolute")
	})
	t.Run("failure - traversal segments", func(t *testing.T) {
		for _, dir := range []string{"../../srv/other", "/srv/../etc/cron.d"} {
			err := ValidateProjectDir(dir)

			var invalid InvalidProjectDirError
			assert.True(t, errors.As(err, &invalid), dir)
			assert.Contains(t, invalid.Reason, "traversal")
		}
	})
	t.Run("failure - home directory shorthand", func(t *testing.T) {
		err := ValidateProjectDir("/srv/~deploy")

		var invalid InvalidProjectDirError
		assert.True(t, errors.As(err, &invalid))
		assert.Contains(t, invalid.Reason, "home directory")
	})
	t.Run("failure - illegal characters", func(t *testing.T) {
		for _, dir := range []string{`/srv/deploy|me`, "/srv/deploy*", "/srv/a\x00b", "/srv/a\nb"} {
			err := ValidateProjectDir(dir)

			var invalid InvalidProjectDirError
			assert.True(t, errors.As(err, &invalid), dir)
			assert.Contains(t, invalid.Reason, "illegal")
		}
	})
	t.Run("failure - unnormalized path", func(t *testing.T) {
		for _, dir := range []string{"/srv/deployments/", "/srv//deployments", "/srv/./deployments"} {
			err := ValidateProjectDir(dir)

			var invalid InvalidProjectDirError
			assert.True(t, errors.As(err, &invalid), dir)
			assert.Contains(t, invalid.Reason, "normalized")
		}
	})
}
