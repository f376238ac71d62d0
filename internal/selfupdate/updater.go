package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/mod/semver"
)

// DevVersion is the version string of builds made without release flags.
const DevVersion = "(devel)"

// binaryName is the executable inside each release archive.
const binaryName = "mindharmony"

// maxDownloadBytes caps any single release download.
const maxDownloadBytes = 128 << 20

var (
	ErrDevBuild      = errors.New("cannot update a development build")
	ErrAlreadyLatest = errors.New("already running the latest version")
	ErrChecksum      = errors.New("checksum verification failed")
	ErrBadVersion    = errors.New("not a release version")
)

// UpdateInput selects the release to install. An empty TargetVersion
// installs the latest release. Tags may omit the leading "v".
type UpdateInput struct {
	CurrentVersion string
	TargetVersion  string
}

// Stage names a step of Update, in the order they run.
type Stage string

const (
	StageCheck    Stage = "check"
	StageDownload Stage = "download"
	StageVerify   Stage = "verify"
	StageExtract  Stage = "extract"
	StageApply    Stage = "apply"
	StageDone     Stage = "done"
)

type UpdateProgress struct {
	Stage   Stage
	Message string
}

// releaseFiles are the URLs of one release for the running platform.
type releaseFiles struct {
	tag       string
	asset     string
	archive   string
	checksums string
}

func (c *Checker) releaseFiles(tag, goos, goarch string) (releaseFiles, error) {
	asset, err := assetNameFor(goos, goarch)
	if err != nil {
		return releaseFiles{}, err
	}
	dir := fmt.Sprintf("%s/%s/%s/releases/download/%s",
		strings.TrimRight(c.downloadBaseURL, "/"), c.owner, c.repo, tag)
	return releaseFiles{
		tag:       tag,
		asset:     asset,
		archive:   dir + "/" + asset,
		checksums: dir + "/checksums.txt",
	}, nil
}

// Update downloads the release archive, verifies it against the published
// checksums, and replaces the running executable.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, progress func(UpdateProgress)) error {
	if input.CurrentVersion == DevVersion {
		return ErrDevBuild
	}
	step := func(s Stage, format string, args ...any) {
		progress(UpdateProgress{Stage: s, Message: fmt.Sprintf(format, args...)})
	}

	tag, err := c.resolveTag(ctx, input, step)
	if err != nil {
		return err
	}
	files, err := c.releaseFiles(tag, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}

	step(StageDownload, "Downloading %s...", files.asset)
	archive, err := c.download(ctx, files.archive)
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}

	step(StageVerify, "Verifying %s...", humanize.Bytes(uint64(len(archive))))
	sums, err := c.download(ctx, files.checksums)
	if err != nil {
		return fmt.Errorf("download checksums: %w", err)
	}
	want, ok := parseChecksums(sums)[files.asset]
	if !ok {
		return fmt.Errorf("%w: %s is not listed in checksums.txt", ErrChecksum, files.asset)
	}
	if err := verifyChecksum(archive, want); err != nil {
		return err
	}

	step(StageExtract, "Extracting %s...", binaryName)
	bin, err := extractBinary(archive, files.asset)
	if err != nil {
		return fmt.Errorf("extract binary: %w", err)
	}

	step(StageApply, "Replacing the installed binary...")
	target, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	sum := sha256.Sum256(bin)
	if err := applyUpdate(bin, target, sum[:]); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	step(StageDone, "Updated to %s", tag)
	return nil
}

// resolveTag returns the canonical tag to install.
func (c *Checker) resolveTag(ctx context.Context, input *UpdateInput, step func(Stage, string, ...any)) (string, error) {
	if input.TargetVersion != "" {
		tag := canonical(input.TargetVersion)
		if !semver.IsValid(tag) {
			return "", fmt.Errorf("%w: %q", ErrBadVersion, input.TargetVersion)
		}
		if cur := canonical(input.CurrentVersion); semver.IsValid(cur) && semver.Compare(tag, cur) == 0 {
			return "", ErrAlreadyLatest
		}
		return tag, nil
	}

	step(StageCheck, "Checking for the latest release...")
	res, err := c.Check(ctx, &CheckInput{Version: input.CurrentVersion})
	if err != nil {
		return "", fmt.Errorf("check for updates: %w", err)
	}
	if !res.UpdateAvailable {
		return "", ErrAlreadyLatest
	}
	return res.LatestVersion, nil
}

func assetName() (string, error) {
	return assetNameFor(runtime.GOOS, runtime.GOARCH)
}

func assetNameFor(goos, goarch string) (string, error) {
	if goos == "darwin" {
		return binaryName + "_Darwin_all.tar.gz", nil
	}

	var arch string
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "arm64"
	case "386":
		arch = "i386"
	}

	switch goos {
	case "linux", "windows":
		if arch == "" {
			return "", fmt.Errorf("unsupported architecture: %s", goarch)
		}
		ext := ".tar.gz"
		if goos == "windows" {
			ext = ".zip"
		}
		return fmt.Sprintf("%s_%s_%s%s", binaryName, strings.ToUpper(goos[:1])+goos[1:], arch, ext), nil
	}
	return "", fmt.Errorf("unsupported operating system: %s", goos)
}

func (c *Checker) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("%s is larger than %s", url, humanize.Bytes(maxDownloadBytes))
	}
	return data, nil
}

// parseChecksums reads sha256sum output. Both "hash  name" and the binary
// mode form "hash *name" are accepted.
func parseChecksums(data []byte) map[string]string {
	sums := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		sums[strings.TrimPrefix(fields[1], "*")] = strings.ToLower(fields[0])
	}
	return sums
}

func verifyChecksum(data []byte, wantHex string) error {
	h := sha256.Sum256(data)
	if got := hex.EncodeToString(h[:]); got != wantHex {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksum, wantHex, got)
	}
	return nil
}

func extractBinary(archive []byte, asset string) ([]byte, error) {
	if strings.HasSuffix(asset, ".zip") {
		return extractFromZip(archive, binaryName+".exe")
	}
	return extractFromTarGz(archive, binaryName)
}

func extractFromTarGz(data []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("binary %q not found in archive", name)
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && filepath.Base(hdr.Name) == name {
			return io.ReadAll(io.LimitReader(tr, maxDownloadBytes))
		}
	}
}

func extractFromZip(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if filepath.Base(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(io.LimitReader(rc, maxDownloadBytes))
	}
	return nil, fmt.Errorf("binary %q not found in archive", name)
}

// applyUpdate writes bin next to target, checks the written bytes against
// wantHash, and renames it over target keeping target's mode.
func applyUpdate(bin []byte, target string, wantHash []byte) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+binaryName+"-update-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(bin); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("re-read temp file: %w", err)
	}
	if sum := sha256.Sum256(written); !bytes.Equal(sum[:], wantHash) {
		return fmt.Errorf("%w: temp file changed after write", ErrChecksum)
	}

	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	committed = true
	return nil
}
