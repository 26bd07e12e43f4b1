// Package installer copies a built application bundle into place, removes
// it again, and packages release archives. Every installed file is recorded
// in a manifest so uninstall removes exactly what install created.
package installer

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ManifestName is the file recording what an install put on disk.
const ManifestName = "install_manifest.json"

// Manifest lists every file an installation created, relative to the
// install directory.
type Manifest struct {
	Version     string    `json:"version"`
	InstalledAt time.Time `json:"installed_at"`
	Files       []string  `json:"files"`
}

// Installer performs install, uninstall, and package operations.
type Installer struct {
	log zerolog.Logger
}

// New builds an installer.
func New(log zerolog.Logger) *Installer {
	return &Installer{log: log.With().Str("component", "installer").Logger()}
}

// Install copies every file under srcDir into destDir and writes the
// manifest. An existing installation is replaced: its manifest files are
// removed first so stale files from older versions never linger.
func (i *Installer) Install(srcDir, destDir, version string) (*Manifest, error) {
	srcInfo, err := os.Stat(srcDir)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !srcInfo.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", srcDir)
	}

	// Replace any previous installation cleanly.
	if _, err := os.Stat(filepath.Join(destDir, ManifestName)); err == nil {
		if err := i.Uninstall(destDir); err != nil {
			return nil, fmt.Errorf("remove previous installation: %w", err)
		}
	}

	manifest := &Manifest{Version: version, InstalledAt: time.Now().UTC()}

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if err := copyFile(path, filepath.Join(destDir, rel)); err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		manifest.Files = append(manifest.Files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(manifest.Files) == 0 {
		return nil, fmt.Errorf("source directory %s contains no files", srcDir)
	}
	sort.Strings(manifest.Files)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(destDir, ManifestName), data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	i.log.Info().Str("dest", destDir).Int("files", len(manifest.Files)).Msg("installed")
	return manifest, nil
}

// Uninstall removes the files named in the manifest, the manifest itself,
// and any directories left empty. Files the user created alongside the
// installation are untouched.
func (i *Installer) Uninstall(destDir string) error {
	manifest, err := ReadManifest(destDir)
	if err != nil {
		return err
	}

	dirs := map[string]struct{}{}
	for _, rel := range manifest.Files {
		path := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", rel, err)
		}
		for d := filepath.Dir(path); strings.HasPrefix(d, destDir) && d != destDir; d = filepath.Dir(d) {
			dirs[d] = struct{}{}
		}
	}

	if err := os.Remove(filepath.Join(destDir, ManifestName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove manifest: %w", err)
	}

	// Deepest first so nested empty directories collapse.
	var ordered []string
	for d := range dirs {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(a, b int) bool { return len(ordered[a]) > len(ordered[b]) })
	for _, d := range ordered {
		// Fails when the directory still holds user files, which is fine.
		_ = os.Remove(d)
	}
	_ = os.Remove(destDir)

	i.log.Info().Str("dest", destDir).Int("files", len(manifest.Files)).Msg("uninstalled")
	return nil
}

// ReadManifest loads the manifest of an installation.
func ReadManifest(destDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(destDir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no installation found in %s", destDir)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &manifest, nil
}

// Package zips srcDir into outDir as <name>-<version>.zip and returns the
// archive path. Entries are rooted under a <name>/ prefix.
func (i *Installer) Package(srcDir, outDir, name, version string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	archivePath := filepath.Join(outDir, fmt.Sprintf("%s-%s.zip", name, version))
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	count := 0
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(name + "/" + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err == nil {
			count++
		}
		return err
	})
	if err != nil {
		zw.Close()
		return "", fmt.Errorf("archive %s: %w", srcDir, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if count == 0 {
		os.Remove(archivePath)
		return "", fmt.Errorf("source directory %s contains no files", srcDir)
	}

	i.log.Info().Str("archive", archivePath).Int("files", count).Msg("packaged")
	return archivePath, nil
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
