package local

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fyrsmithlabs/embedd/internal/logging"
	"go.uber.org/zap"
)

// DefaultONNXRuntimeVersion matches the onnxruntime_go release fastembed-go
// links against.
const DefaultONNXRuntimeVersion = "1.23.0"

const onnxReleaseURLTemplate = "https://github.com/microsoft/onnxruntime/releases/download/v%[1]s/onnxruntime-%[2]s-%[1]s.tgz"

// ErrUnsupportedPlatform indicates no ONNX runtime build exists for GOOS/GOARCH.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

var platformArchives = map[string]map[string]string{
	"linux": {
		"amd64": "linux-x64",
		"arm64": "linux-aarch64",
	},
	"darwin": {
		"amd64": "osx-x86_64",
		"arm64": "osx-arm64",
	},
}

func platformArchive(goos, goarch string) (string, error) {
	if arch, ok := platformArchives[goos][goarch]; ok {
		return arch, nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
}

func libraryName(goos string) string {
	if goos == "darwin" {
		return "libonnxruntime.dylib"
	}
	return "libonnxruntime.so"
}

// RuntimeInstaller locates or downloads the ONNX runtime shared library.
// Zero fields take defaults.
type RuntimeInstaller struct {
	Version string
	// Dir is the managed install directory, ~/.config/embedd/lib by default.
	Dir        string
	HTTPClient *http.Client
	// URLTemplate takes the version and platform archive as %[1]s and %[2]s.
	URLTemplate string
	Logger      *logging.Logger

	goos, goarch string
	setenv       func(key, value string) error
}

func (i *RuntimeInstaller) defaults() {
	if i.Version == "" {
		i.Version = DefaultONNXRuntimeVersion
	}
	if i.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		i.Dir = filepath.Join(home, ".config", "embedd", "lib")
	}
	if i.HTTPClient == nil {
		i.HTTPClient = http.DefaultClient
	}
	if i.URLTemplate == "" {
		i.URLTemplate = onnxReleaseURLTemplate
	}
	if i.Logger == nil {
		i.Logger = logging.NewNop()
	}
	if i.goos == "" {
		i.goos, i.goarch = runtime.GOOS, runtime.GOARCH
	}
	if i.setenv == nil {
		i.setenv = os.Setenv
	}
}

// LibraryPath returns ONNX_PATH if set, else the managed library if it
// exists, else "".
func (i *RuntimeInstaller) LibraryPath() string {
	i.defaults()
	if envPath := os.Getenv("ONNX_PATH"); envPath != "" {
		return envPath
	}
	managed := filepath.Join(i.Dir, libraryName(i.goos))
	if _, err := os.Stat(managed); err == nil {
		return managed
	}
	return ""
}

// Ensure returns the library path, downloading the runtime when missing.
// ONNX_PATH is set to the result so the engine can find it.
func (i *RuntimeInstaller) Ensure(ctx context.Context) (string, error) {
	i.defaults()
	if path := i.LibraryPath(); path != "" {
		return path, nil
	}

	i.Logger.Info(ctx, "onnx runtime not found, downloading",
		zap.String("version", i.Version),
		zap.String("platform", i.goos+"/"+i.goarch),
	)
	if err := i.Install(ctx); err != nil {
		return "", fmt.Errorf("installing onnx runtime (or set ONNX_PATH): %w", err)
	}

	path := filepath.Join(i.Dir, libraryName(i.goos))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("onnx runtime installed but %s missing: %w", path, err)
	}
	if err := i.setenv("ONNX_PATH", path); err != nil {
		return "", fmt.Errorf("setting ONNX_PATH: %w", err)
	}
	i.Logger.Info(ctx, "onnx runtime installed", zap.String("path", path))
	return path, nil
}

// Install downloads the runtime archive and extracts its lib/ directory
// into Dir.
func (i *RuntimeInstaller) Install(ctx context.Context) error {
	i.defaults()
	platform, err := platformArchive(i.goos, i.goarch)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(i.Dir, 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	url := fmt.Sprintf(i.URLTemplate, i.Version, platform)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := i.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s failed with status %d", url, resp.StatusCode)
	}

	prefix := fmt.Sprintf("onnxruntime-%s-%s/lib/", platform, i.Version)
	if err := extractLib(resp.Body, i.Dir, prefix, libraryName(i.goos)); err != nil {
		return fmt.Errorf("extracting archive: %w", err)
	}
	return nil
}

// extractLib copies every file under prefix in the tar.gz stream into
// destDir, flattening paths. It fails if libName is not among them.
func extractLib(r io.Reader, destDir, prefix, libName string) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	var foundLib bool

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}

		name := strings.TrimPrefix(header.Name, "./")
		if !strings.HasPrefix(name, prefix) || header.Typeflag == tar.TypeDir {
			continue
		}

		filename := filepath.Base(name)
		destPath := filepath.Join(destDir, filename)
		isLib := filename == libName || strings.HasPrefix(filename, libName+".")

		if header.Typeflag == tar.TypeSymlink {
			if strings.Contains(header.Linkname, "/") {
				continue
			}
			_ = os.Remove(destPath)
			if err := os.Symlink(header.Linkname, destPath); err == nil && isLib {
				foundLib = true
			}
			continue
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		if err := writeFile(destPath, tr); err != nil {
			return fmt.Errorf("writing %s: %w", filename, err)
		}
		if isLib {
			foundLib = true
		}
	}

	if !foundLib {
		return fmt.Errorf("library %s not found in archive", libName)
	}
	return nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EnsureONNXRuntime is RuntimeInstaller.Ensure with defaults and the given
// version.
func EnsureONNXRuntime(ctx context.Context, version string, logger *logging.Logger) (string, error) {
	i := &RuntimeInstaller{Version: version, Logger: logger}
	return i.Ensure(ctx)
}
