package config

// Options holds the values given on the command line. Empty strings, nil
// slices and a nil SSLVerify mean "not given".
type Options struct {
	Name        string
	URL         string
	Version     string
	Type        string
	Repository  string
	Username    string
	Password    string
	AccessToken string

	Ignore                []string
	IgnoreDirs            []string // deprecated, use Ignore
	IgnoreByGitAttributes bool
	IgnoreByComposer      bool

	SourceType string
	SourceURL  string
	SourceRef  string

	KeepVendor   bool
	KeepDotFiles bool
	SSLVerify    *bool

	// WorkingDir is the project root, where composer.json and .gitattributes live.
	WorkingDir string
}

// Descriptor is the subset of a composer.json file the push command reads.
type Descriptor struct {
	Name            string
	Version         string
	Extra           map[string]any
	ArchiveExcludes []string
}

// Keys of the push configuration block and the settings it may hold.
const (
	PushKey       = "push"
	LegacyPushKey = "nexus-push"

	KeyName                  = "name"
	KeyURL                   = "url"
	KeyType                  = "type"
	KeyUsername              = "username"
	KeyPassword              = "password"
	KeyAccessToken           = "access-token"
	KeyIgnore                = "ignore"
	KeyIgnoreDirs            = "ignore-dirs"
	KeyIgnoreByGitAttributes = "ignore-by-git-attributes"
	KeyIgnoreByComposer      = "ignore-by-composer"
	KeySSLVerify             = "ssl-verify"
	KeyKeepDotFiles          = "keep-dot-files"
	KeySubdirectory          = "subdirectory"
)

// DefaultType is the repository type used when none is configured.
const DefaultType = "nexus"

// VendorIgnore is always ignored unless --keep-vendor is given.
const VendorIgnore = "vendor/"

// listKeys are merged across scopes instead of overridden.
var listKeys = []string{KeyIgnore, KeyIgnoreDirs}
