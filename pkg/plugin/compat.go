package plugin

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CheckEngineCompatibility verifies the manifest's engines.sqlpro
// range against the host version. A manifest without an engines block
// is compatible with any host.
func CheckEngineCompatibility(manifest *Manifest, hostVersion string) error {
	if manifest.Engines == nil || manifest.Engines.SQLPro == "" {
		return nil
	}

	v, err := semver.NewVersion(hostVersion)
	if err != nil {
		return fmt.Errorf("invalid host version %s: %w", hostVersion, err)
	}

	c, err := semver.NewConstraint(manifest.Engines.SQLPro)
	if err != nil {
		return fmt.Errorf("invalid engine constraint %s: %w", manifest.Engines.SQLPro, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("plugin %s requires sqlpro %s, host is %s",
			manifest.ID, manifest.Engines.SQLPro, hostVersion)
	}

	return nil
}
