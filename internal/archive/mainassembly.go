package archive

import (
	"bufio"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ResolveMainAssembly determines the main assembly for a .cpz package
// extracted at root, per spec.md §4.3: prefer manifest.info's
// MainAssembly key; fall back to ProgramInfo.config's EntryPoint
// element. Returns "" when neither file yields a value.
func ResolveMainAssembly(root string) (string, error) {
	infoPath := filepath.Join(root, "manifest.info")
	if name, ok, err := mainAssemblyFromManifestInfo(infoPath); err != nil {
		return "", err
	} else if ok {
		return name, nil
	}

	configPath := filepath.Join(root, "ProgramInfo.config")
	if name, ok, err := mainAssemblyFromProgramInfo(configPath); err != nil {
		return "", err
	} else if ok {
		return name, nil
	}
	return "", nil
}

func mainAssemblyFromManifestInfo(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < len("MainAssembly=") {
			continue
		}
		if !strings.EqualFold(line[:len("MainAssembly=")], "MainAssembly=") {
			continue
		}
		value := line[len("MainAssembly="):]
		return normalizeAssemblyName(value), true, nil
	}
	if err := scanner.Err(); err != nil {
		return "", false, errors.Wrapf(err, "scan %q", path)
	}
	return "", false, nil
}

// programInfoConfig mirrors just enough of ProgramInfo.config's shape
// to pull out the first EntryPoint element.
type programInfoConfig struct {
	XMLName    xml.Name `xml:"ProgramInfo"`
	EntryPoint string   `xml:"EntryPoint"`
}

func mainAssemblyFromProgramInfo(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", false, errors.Wrapf(err, "read %q", path)
	}

	var cfg programInfoConfig
	if err := xml.Unmarshal(data, &cfg); err != nil {
		return "", false, errors.Wrapf(err, "parse %q", path)
	}
	if strings.TrimSpace(cfg.EntryPoint) == "" {
		return "", false, nil
	}
	return normalizeAssemblyName(cfg.EntryPoint), true, nil
}

// normalizeAssemblyName strips any ":variant" suffix and a trailing
// ".dll" extension (case-insensitive), per spec.md §4.3.
func normalizeAssemblyName(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		name = name[:idx]
	}
	if strings.HasSuffix(strings.ToLower(name), ".dll") {
		name = name[:len(name)-len(".dll")]
	}
	return name
}
