//go:build windows

package toolchain

import (
	"golang.org/x/sys/windows/registry"
)

const (
	userBuildsKey     = `Software\Epic Games\Unreal Engine\Builds`
	machineBuildsKey  = `SOFTWARE\Epic Games\Unreal Engine\Builds`
	machineInstallKey = `SOFTWARE\EpicGames\Unreal Engine\`
)

// DefaultSources returns the registry lookup sources in priority order
func DefaultSources() []Source {
	return []Source{
		{
			Name: SourceUserBuilds,
			Lookup: func(id string) (string, bool) {
				return readRegistryString(registry.CURRENT_USER, userBuildsKey, id)
			},
		},
		{
			Name: SourceMachineBuilds,
			Lookup: func(id string) (string, bool) {
				return readRegistryString(registry.LOCAL_MACHINE, machineBuildsKey, id)
			},
		},
		{
			Name: SourceMachineInstall,
			Lookup: func(id string) (string, bool) {
				return readRegistryString(registry.LOCAL_MACHINE, machineInstallKey+id, "InstalledDirectory")
			},
		},
	}
}

func readRegistryString(root registry.Key, path, name string) (string, bool) {
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer k.Close()

	value, _, err := k.GetStringValue(name)
	if err != nil || value == "" {
		return "", false
	}

	return value, true
}
