package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/dgadling/ompd/internal/fileutil"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/services"
	"github.com/dgadling/ompd/internal/sessiondir"
)

// Suffix is appended to compressed artifact names.
const Suffix = ".gz"

// Compress turns path into path.gz and removes the original. The archive
// is decompressed and checksummed against the source before the plain
// file goes away. Returns the archive path.
func Compress(path string) (string, error) {
	if strings.HasSuffix(path, Suffix) {
		return "", fmt.Errorf("%s is already compressed", path)
	}
	target := path + Suffix
	tmp := target + ".tmp"

	if err := writeGzip(path, tmp); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := verify(path, tmp); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize archive %s: %w", target, err)
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove plain artifact %s: %w", path, err)
	}
	return target, nil
}

// Decompress restores path.gz to its original name, byte for byte, and
// removes the archive. Returns the restored path.
func Decompress(gzPath string) (string, error) {
	if !strings.HasSuffix(gzPath, Suffix) {
		return "", fmt.Errorf("%s is not a %s archive", gzPath, Suffix)
	}
	target := strings.TrimSuffix(gzPath, Suffix)

	in, err := os.Open(gzPath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	reader, err := gzip.NewReader(in)
	if err != nil {
		return "", services.Wrap(services.ErrArchiveCorrupt, "archive", "decompress", gzPath, err)
	}
	defer reader.Close()

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		os.Remove(target)
		return "", services.Wrap(services.ErrArchiveCorrupt, "archive", "decompress", gzPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close %s: %w", target, err)
	}
	if err := os.Remove(gzPath); err != nil {
		return "", fmt.Errorf("remove archive %s: %w", gzPath, err)
	}
	return target, nil
}

func writeGzip(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	writer := gzip.NewWriter(out)
	if _, err := io.Copy(writer, in); err != nil {
		writer.Close()
		out.Close()
		return fmt.Errorf("compress %s: %w", src, err)
	}
	if err := writer.Close(); err != nil {
		out.Close()
		return fmt.Errorf("flush archive %s: %w", dst, err)
	}
	return out.Close()
}

// verify decompresses the candidate archive and compares checksums with
// the source file.
func verify(src, archived string) error {
	want, err := fileutil.FileSHA256(src)
	if err != nil {
		return err
	}
	in, err := os.Open(archived)
	if err != nil {
		return fmt.Errorf("open %s: %w", archived, err)
	}
	defer in.Close()

	reader, err := gzip.NewReader(in)
	if err != nil {
		return services.Wrap(services.ErrArchiveCorrupt, "archive", "verify", archived, err)
	}
	defer reader.Close()

	got, err := fileutil.ReaderSHA256(reader)
	if err != nil {
		return services.Wrap(services.ErrArchiveCorrupt, "archive", "verify", archived, err)
	}
	if !bytes.Equal(want, got) {
		return services.Wrap(services.ErrArchiveCorrupt, "archive", "verify",
			fmt.Sprintf("%s does not round-trip to %s", archived, src), nil)
	}
	return nil
}

// Archiver compresses every remaining artifact inside a session directory.
type Archiver struct {
	shotType string
	logger   *slog.Logger
}

// NewArchiver constructs an Archiver for the given frame format.
func NewArchiver(shotType string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{shotType: shotType, logger: logging.NewComponentLogger(logger, "archive")}
}

// ArchiveSession compresses the metadata artifact and every frame in dir.
// Already-compressed artifacts are left alone, so a partially archived
// directory finishes cleanly on retry. Returns the number of artifacts
// compressed.
func (a *Archiver) ArchiveSession(dir string) (int, error) {
	compressed := 0

	meta := filepath.Join(dir, sessiondir.MetadataFileName)
	if fileExists(meta) {
		if _, err := Compress(meta); err != nil {
			return compressed, err
		}
		compressed++
	}

	frames, err := sessiondir.FrameFiles(dir, a.shotType)
	if err != nil {
		return compressed, err
	}
	for _, frame := range frames {
		if _, err := Compress(frame); err != nil {
			return compressed, err
		}
		compressed++
	}

	a.logger.Info("archived session artifacts",
		logging.String(logging.FieldDirectory, dir),
		logging.Int("artifacts", compressed))
	return compressed, nil
}

// RestoreSession decompresses every archived artifact in dir, restoring the
// directory to its pre-archive contents. Returns the number of artifacts
// restored. Corruption aborts the restore with the failing artifact left in
// place.
func (a *Archiver) RestoreSession(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read session dir %s: %w", dir, err)
	}
	restored := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		if _, err := Decompress(filepath.Join(dir, entry.Name())); err != nil {
			return restored, err
		}
		restored++
	}
	a.logger.Info("restored session artifacts",
		logging.String(logging.FieldDirectory, dir),
		logging.Int("artifacts", restored))
	return restored, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
