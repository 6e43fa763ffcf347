package config_test

import (
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/dorameter/pkg/cli/config"
)

func TestGitHub_NewClient(t *testing.T) {
	t.Run("token", func(t *testing.T) {
		client, err := (&config.GitHub{Token: "ghp_test", RequestRate: 1}).NewClient()
		gt.NoError(t, err)
		gt.Value(t, client).NotNil()
	})

	t.Run("no credentials", func(t *testing.T) {
		_, err := (&config.GitHub{}).NewClient()
		gt.Error(t, err)
	})

	t.Run("app without installation", func(t *testing.T) {
		_, err := (&config.GitHub{AppID: 1, PrivateKey: "key"}).NewClient()
		gt.Error(t, err)
	})

	t.Run("app without key", func(t *testing.T) {
		_, err := (&config.GitHub{AppID: 1, InstallationID: 2}).NewClient()
		gt.Error(t, err)
	})

	t.Run("missing key file", func(t *testing.T) {
		_, err := (&config.GitHub{AppID: 1, InstallationID: 2, PrivateKeyFile: filepath.Join(t.TempDir(), "key.pem")}).NewClient()
		gt.Error(t, err)
	})
}
