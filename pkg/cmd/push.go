package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"composer-push/pkg/archive"
	"composer-push/pkg/config"
	"composer-push/pkg/provider"
	"composer-push/pkg/utils"
)

// newStore builds the stored credential lookup of a project.
var newStore = provider.DefaultStore

type PushCmdOpts struct {
	config.Options
	Timeout string
}

// NewPushCmd creates the 'push' command
func NewPushCmd() *cobra.Command {
	var opts PushCmdOpts

	cmd := &cobra.Command{
		Use:     "push <version>",
		Aliases: []string{"nexus-push"},
		Short:   "Archive the project and push it to a Composer repository",
		Long: `Push archives the project directory into a zip file, stamps the version into its
composer.json and uploads it to a Nexus or Artifactory Composer repository.

The repository is configured in the extra.push section of composer.json, or of the
global composer.json in COMPOSER_HOME. Command line options take precedence.`,
		Example: `  # Push version 1.0.0 using the configuration of composer.json
  composer-push push 1.0.0

  # Push to one of several configured repositories
  composer-push push 1.0.0 --repository prod

  # Push to an Artifactory repository with a token
  composer-push push 1.0.0 --type artifactory --url https://example.com/artifactory/api/composer/php --access-token $TOKEN

  # Keep the vendor folder and ignore the tests
  composer-push push 1.0.0 --keep-vendor --ignore tests --ignore phpunit.xml.dist

  # Very verbose push
  composer-push push 1.0.0 -vv`,

		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Version = args[0]
			}
			opts.WorkingDir = workingDir(cmd)
			return runPush(opts)
		},
	}

	flags := cmd.Flags()
	bindTargetFlags(flags, &opts.Options)
	flags.StringVar(&opts.Username, "username", "", "Username to log in the distant repository")
	flags.StringVar(&opts.Password, "password", "", "Password to log in the distant repository")
	flags.StringVar(&opts.AccessToken, "access-token", "", "Access token to log in the distant repository")
	flags.StringArrayVar(&opts.Ignore, "ignore", nil, "Directories and files to ignore when creating the zip")
	flags.StringArrayVar(&opts.IgnoreDirs, "ignore-dirs", nil, "Directories to ignore when creating the zip")
	_ = flags.MarkDeprecated("ignore-dirs", "use --ignore instead")
	flags.BoolVar(&opts.IgnoreByGitAttributes, "ignore-by-git-attributes", false, "Ignore .gitattributes export-ignore directories when creating the zip")
	flags.BoolVar(&opts.IgnoreByComposer, "ignore-by-composer", false, "Ignore composer.json archive-exclude files and directories when creating the zip")
	flags.StringVar(&opts.SourceType, "src-type", "", "The source type (git/svn,...) pushed to the repository")
	flags.StringVar(&opts.SourceURL, "src-url", "", "The source url pushed to the repository")
	flags.StringVar(&opts.SourceRef, "src-ref", "", "The source reference pushed to the repository")
	flags.BoolVar(&opts.KeepVendor, "keep-vendor", false, "Keep vendor directory when creating zip")
	flags.BoolVar(&opts.KeepDotFiles, "keep-dot-files", false, "Keep dot files when creating zip")
	bindOptionalBool(flags, &opts.SSLVerify, "ssl-verify", "Enable (default) or disable the verification of the SSL certificate")
	flags.StringVarP(&opts.Timeout, "timeout", "t", "", "Timeout for the operation (e.g., '30s', '5m'). No timeout by default")

	return cmd
}

func runPush(opts PushCmdOpts) error {
	logger := log.Logger

	if err := config.ValidateSourceReference(opts.Options); err != nil {
		logger.Error().Err(err).Msg("Invalid source reference")
		return newExitCodeError(ExitConfigError, err)
	}

	// Create cancellable context with signal handling
	ctx, cancel, err := utils.ContextWithSignalHandling(opts.Timeout)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid timeout")
		return newExitCodeError(ExitConfigError, err)
	}
	defer cancel()

	cfg, err := loadConfiguration(opts.Options, logger)
	if err != nil {
		return newExitCodeError(ExitConfigError, err)
	}

	if cfg.Version() == "" {
		err := fmt.Errorf("%w: the version argument is required", config.ErrMissingConfig)
		logger.Error().Err(err).Msg("Missing version")
		return newExitCodeError(ExitConfigError, err)
	}

	deps := provider.Deps{
		Config: cfg,
		Log:    logger,
		Store:  newStore(cfg.WorkingDir(), logger),
	}
	if bar := utils.NewBarProgress("Uploading " + cfg.PackageName()); bar != nil {
		deps.Progress = bar
	}
	p, err := provider.New(cfg.Type(), deps)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid repository type")
		return newExitCodeError(ExitConfigError, err)
	}
	url, err := p.URL()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid repository URL")
		return newExitCodeError(ExitConfigError, err)
	}

	tmp, err := utils.CreateTempFile("composer-push-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := pushArchive(ctx, cfg, p, tmp, logger); err != nil {
		if utils.IsCancelledByUser(ctx) {
			logger.Warn().Msg("Push cancelled")
		}
		return err
	}

	logger.Info().Msgf("Package pushed to %s", url)
	return nil
}

func pushArchive(ctx context.Context, cfg *config.Configuration, p provider.Provider, tmp string, logger zerolog.Logger) error {
	ignores := cfg.Ignores()
	logger.Debug().Msgf("Ignore directories: %s", strings.Join(ignores, " "))

	desc, err := archive.Directory(ctx, archive.Spec{
		Source:         cfg.WorkingDir(),
		Destination:    tmp,
		Version:        cfg.Version(),
		Subdirectory:   cfg.Subdirectory(),
		Ignores:        ignores,
		ExportPatterns: cfg.ExportIgnorePatterns(),
		KeepDotFiles:   cfg.KeepDotFiles(),
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to create the archive")
		return newExitCodeError(ExitArchiveError, err)
	}
	logger.Debug().Str("digest", desc.Digest.String()).Int64("size", desc.Size).Msg("Archive ready")

	if err := p.SendFile(ctx, tmp); err != nil {
		logger.Error().Err(err).Msg("Push failed")
		return newExitCodeError(ExitUploadError, err)
	}
	return nil
}

// loadConfiguration reads the project and global composer.json files and
// resolves the effective configuration.
func loadConfiguration(opts config.Options, logger zerolog.Logger) (*config.Configuration, error) {
	name := os.Getenv("COMPOSER")
	if name == "" {
		name = config.DescriptorFileName
	}
	project, err := config.LoadDescriptor(filepath.Join(opts.WorkingDir, name))
	if err != nil {
		logger.Error().Err(err).Msg("Unable to read the project composer.json")
		return nil, err
	}

	var global *config.Descriptor
	if home := utils.ComposerHome(); home != "" {
		global, err = config.LoadOptionalDescriptor(filepath.Join(home, config.DescriptorFileName))
		if err != nil {
			logger.Error().Err(err).Msg("Unable to read the global composer.json")
			return nil, err
		}
	}

	return config.New(opts, project, global, logger)
}
