package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	githubinfra "github.com/m-mizutani/dorameter/pkg/infra/github"
)

// GitHub holds GitHub API configuration. Either a token or App credentials are required.
type GitHub struct {
	Token          string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	PrivateKeyFile string
	BaseURL        string
	RequestRate    float64
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub personal access token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("DORAMETER_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("DORAMETER_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("DORAMETER_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("DORAMETER_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "Path to GitHub App private key (PEM)",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("DORAMETER_GITHUB_PRIVATE_KEY_FILE"),
		},
		&cli.StringFlag{
			Name:        "github-base-url",
			Usage:       "GitHub API base URL, for GitHub Enterprise Server",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("DORAMETER_GITHUB_BASE_URL"),
		},
		&cli.FloatFlag{
			Name:        "github-request-rate",
			Usage:       "Maximum GitHub API requests per second",
			Value:       5,
			Destination: &c.RequestRate,
			Sources:     cli.EnvVars("DORAMETER_GITHUB_REQUEST_RATE"),
		},
	}
}

// NewClient creates a GitHub client from the configured credentials
func (c *GitHub) NewClient() (interfaces.GitHubClient, error) {
	opts := []githubinfra.Option{
		githubinfra.WithRequestRate(c.RequestRate),
	}
	if c.BaseURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(c.BaseURL))
	}

	switch {
	case c.AppID != 0:
		if c.InstallationID == 0 {
			return nil, goerr.New("--github-installation-id is required with --github-app-id")
		}
		key := []byte(c.PrivateKey)
		if c.PrivateKeyFile != "" {
			raw, err := os.ReadFile(c.PrivateKeyFile)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", c.PrivateKeyFile))
			}
			key = raw
		}
		if len(key) == 0 {
			return nil, goerr.New("--github-private-key or --github-private-key-file is required with --github-app-id")
		}
		opts = append(opts, githubinfra.WithAppAuth(c.AppID, c.InstallationID, key))

	case c.Token != "":
		opts = append(opts, githubinfra.WithToken(c.Token))

	default:
		return nil, goerr.New("GitHub credentials are required: set --github-token or --github-app-id")
	}

	return githubinfra.NewClient(opts...)
}
