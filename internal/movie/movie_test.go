package movie

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/config"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/services"
	"github.com/dgadling/ompd/internal/sessiondir"
	"github.com/dgadling/ompd/internal/testsupport"
)

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("OMPD_HELPER_MODE") {
	case "muxers":
		fmt.Println("Muxers:")
		fmt.Println("  D. = Demuxing supported")
		fmt.Println("  .E = Muxing supported")
		fmt.Println(" E mp4             MP4 (MPEG-4 Part 14)")
		fmt.Println(" E webm            WebM")
	case "fail":
		os.Exit(1)
	}
	os.Exit(0)
}

func stubCommand(t *testing.T, mode string, captured *[][]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append(*captured, append([]string(nil), args...))
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "OMPD_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/ffmpeg"))
	if cli.binary != "/opt/ffmpeg" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestCLIEncodeRequiresPattern(t *testing.T) {
	cli := NewCLI()
	err := cli.Encode(context.Background(), Request{OutputPath: "/tmp/out.mp4", Width: 2, Height: 2})
	if err == nil {
		t.Fatal("expected error when frame pattern is empty")
	}
}

func TestCLIEncodeArgsAndLogs(t *testing.T) {
	var captured [][]string
	stubCommand(t, "success", &captured)

	dir := t.TempDir()
	cli := NewCLI()
	req := Request{
		FramePattern: filepath.Join(dir, "%05d.png"),
		OutputPath:   filepath.Join(dir, "ompd-2026-08-30.mp4"),
		Width:        1280,
		Height:       720,
		FrameRate:    27,
		LogDir:       dir,
	}
	if err := cli.Encode(context.Background(), req); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	if len(captured) != 1 {
		t.Fatalf("expected one command invocation, got %d", len(captured))
	}
	joined := strings.Join(captured[0], " ")
	wantFilter := "scale=1280:720:force_original_aspect_ratio=decrease,pad=1280:720:(ow-iw)/2:(oh-ih)/2:black"
	if !strings.Contains(joined, wantFilter) {
		t.Fatalf("expected filter %q in args %q", wantFilter, joined)
	}
	if !strings.Contains(joined, "-framerate 27") {
		t.Fatalf("expected frame rate in args %q", joined)
	}
	if !strings.Contains(joined, "-pix_fmt yuv420p") {
		t.Fatalf("expected pixel format in args %q", joined)
	}
	for _, name := range []string{stdoutLogName, stderrLogName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
}

func TestCLIEncodeFailure(t *testing.T) {
	stubCommand(t, "fail", nil)
	cli := NewCLI()
	req := Request{
		FramePattern: "/tmp/%05d.png",
		OutputPath:   "/tmp/out.mp4",
		Width:        2,
		Height:       2,
	}
	if err := cli.Encode(context.Background(), req); err == nil {
		t.Fatal("expected error when encoder exits non-zero")
	}
}

func TestCLIHasMuxer(t *testing.T) {
	stubCommand(t, "muxers", nil)
	cli := NewCLI()
	if ok, err := cli.HasMuxer(context.Background(), "mp4"); err != nil || !ok {
		t.Fatalf("HasMuxer(mp4) = %v, %v", ok, err)
	}
	stubCommand(t, "muxers", nil)
	if ok, err := cli.HasMuxer(context.Background(), "mkv"); err != nil || ok {
		t.Fatalf("HasMuxer(mkv) = %v, %v", ok, err)
	}
}

func TestFillGapsCopiesLowerNeighbour(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []int{0, 1, 3, 6} {
		testsupport.WriteFrame(t, dir, "png", n, 4+n, 4)
	}

	filled, err := FillGaps(dir, "png", logging.NewNop())
	if err != nil {
		t.Fatalf("FillGaps returned error: %v", err)
	}
	if filled != 3 {
		t.Fatalf("expected 3 filled frames, got %d", filled)
	}

	want, err := os.ReadFile(filepath.Join(dir, sessiondir.FrameFileName(1, "png")))
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(dir, sessiondir.FrameFileName(2, "png")))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, got) {
		t.Fatal("expected filled frame 2 to copy frame 1")
	}

	frames, err := sessiondir.FrameFiles(dir, "png")
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 7 {
		t.Fatalf("expected 7 contiguous frames, got %d", len(frames))
	}
}

func TestFillGapsLeadingGapUsesEarliest(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFrame(t, dir, "png", 2, 8, 8)
	testsupport.WriteFrame(t, dir, "png", 3, 8, 8)

	filled, err := FillGaps(dir, "png", logging.NewNop())
	if err != nil {
		t.Fatalf("FillGaps returned error: %v", err)
	}
	if filled != 2 {
		t.Fatalf("expected 2 filled frames, got %d", filled)
	}
	want, err := os.ReadFile(filepath.Join(dir, sessiondir.FrameFileName(2, "png")))
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 1} {
		got, err := os.ReadFile(filepath.Join(dir, sessiondir.FrameFileName(n, "png")))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(want, got) {
			t.Fatalf("expected frame %d to copy the earliest frame", n)
		}
	}
}

func TestFillGapsEmptyDir(t *testing.T) {
	if _, err := FillGaps(t.TempDir(), "png", logging.NewNop()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

// stubEncoder records encode requests and synthesizes outputs without
// running ffmpeg.
type stubEncoder struct {
	requests  []Request
	muxerOK   bool
	output    []byte
	encodeErr error
}

func (s *stubEncoder) Encode(_ context.Context, req Request) error {
	s.requests = append(s.requests, req)
	if s.encodeErr != nil {
		return s.encodeErr
	}
	return os.WriteFile(req.OutputPath, s.output, 0o644)
}

func (s *stubEncoder) HasMuxer(context.Context, string) (bool, error) {
	return s.muxerOK, nil
}

func newSession(t *testing.T, cfg *config.Config, store *catalog.Store, state catalog.State) *catalog.Session {
	t.Helper()
	ctx := context.Background()
	key := "2026-08-30"
	date, err := sessiondir.ParseKey(key)
	if err != nil {
		t.Fatal(err)
	}
	dir := sessiondir.ForDate(cfg.Paths.ShotDir, date)
	if err := os.MkdirAll(dir.Path, 0o755); err != nil {
		t.Fatal(err)
	}
	sess, err := store.Register(ctx, key, dir.Path, catalog.StateClosed, false)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	for current := catalog.StateClosed; current != state; {
		next := catalog.AllStates()[current.Rank()+1]
		if err := store.Transition(ctx, sess.ID, current, next); err != nil {
			t.Fatalf("Transition to %s: %v", next, err)
		}
		current = next
	}
	sess, err = store.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestAssembleEncodesAndCachesResolution(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScaleFactor(0.5))
	store := testsupport.MustOpenCatalog(t, cfg)
	sess := newSession(t, cfg, store, catalog.StateMetadataReady)

	testsupport.WriteFrame(t, sess.DirPath, "png", 0, 2560, 1440)
	testsupport.WriteFrame(t, sess.DirPath, "png", 1, 1920, 1080)

	enc := &stubEncoder{muxerOK: true, output: []byte("movie bytes")}
	asm := NewAssembler(cfg, store, enc, logging.NewNop())
	if err := asm.Assemble(context.Background(), sess); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	if len(enc.requests) != 1 {
		t.Fatalf("expected one encode, got %d", len(enc.requests))
	}
	req := enc.requests[0]
	if req.Width != 1280 || req.Height != 720 {
		t.Fatalf("expected 1280x720 target, got %dx%d", req.Width, req.Height)
	}

	date, _ := sessiondir.ParseKey(sess.Key)
	output := sessiondir.MoviePath(cfg.Paths.VideoDir, date, cfg.Movie.VideoType)
	if req.OutputPath != output {
		t.Fatalf("expected output %s, got %s", output, req.OutputPath)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected movie file: %v", err)
	}

	fresh, err := store.GetByID(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.TargetWidth != 1280 || fresh.TargetHeight != 720 {
		t.Fatalf("expected cached resolution 1280x720, got %dx%d", fresh.TargetWidth, fresh.TargetHeight)
	}
}

func TestAssemblePrefersCachedResolution(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	sess := newSession(t, cfg, store, catalog.StateMetadataReady)

	testsupport.WriteFrame(t, sess.DirPath, "png", 0, 640, 480)
	if err := store.SetTargetResolution(context.Background(), sess.ID, 800, 600); err != nil {
		t.Fatal(err)
	}
	sess, err := store.GetByID(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}

	enc := &stubEncoder{muxerOK: true, output: []byte("x")}
	asm := NewAssembler(cfg, store, enc, logging.NewNop())
	if err := asm.Assemble(context.Background(), sess); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if enc.requests[0].Width != 800 || enc.requests[0].Height != 600 {
		t.Fatalf("expected cached 800x600, got %dx%d", enc.requests[0].Width, enc.requests[0].Height)
	}
}

func TestAssembleNoOpWhenMovieBuilt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	sess := newSession(t, cfg, store, catalog.StateMovieBuilt)

	date, _ := sessiondir.ParseKey(sess.Key)
	output := sessiondir.MoviePath(cfg.Paths.VideoDir, date, cfg.Movie.VideoType)
	if err := os.WriteFile(output, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	enc := &stubEncoder{muxerOK: true, output: []byte("x")}
	asm := NewAssembler(cfg, store, enc, logging.NewNop())
	if err := asm.Assemble(context.Background(), sess); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if len(enc.requests) != 0 {
		t.Fatalf("expected no encodes, got %d", len(enc.requests))
	}
}

func TestAssembleRejectsUnreadySession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	sess := newSession(t, cfg, store, catalog.StateClosed)

	enc := &stubEncoder{muxerOK: true, output: []byte("x")}
	asm := NewAssembler(cfg, store, enc, logging.NewNop())
	err := asm.Assemble(context.Background(), sess)
	if !errors.Is(err, services.ErrStateViolation) {
		t.Fatalf("expected state violation, got %v", err)
	}
}

func TestAssembleRemovesEmptyOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	sess := newSession(t, cfg, store, catalog.StateMetadataReady)
	testsupport.WriteFrame(t, sess.DirPath, "png", 0, 320, 240)

	enc := &stubEncoder{muxerOK: true, output: nil}
	asm := NewAssembler(cfg, store, enc, logging.NewNop())
	err := asm.Assemble(context.Background(), sess)
	if !errors.Is(err, services.ErrEncodingFailed) {
		t.Fatalf("expected encoding failure, got %v", err)
	}

	date, _ := sessiondir.ParseKey(sess.Key)
	output := sessiondir.MoviePath(cfg.Paths.VideoDir, date, cfg.Movie.VideoType)
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatalf("expected empty output to be removed, stat err %v", statErr)
	}
}

func TestAssembleFailsWithoutMuxer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	sess := newSession(t, cfg, store, catalog.StateMetadataReady)
	testsupport.WriteFrame(t, sess.DirPath, "png", 0, 320, 240)

	enc := &stubEncoder{muxerOK: false}
	asm := NewAssembler(cfg, store, enc, logging.NewNop())
	err := asm.Assemble(context.Background(), sess)
	if !errors.Is(err, services.ErrEncodingFailed) {
		t.Fatalf("expected encoding failure, got %v", err)
	}
	if len(enc.requests) != 0 {
		t.Fatalf("expected no encodes, got %d", len(enc.requests))
	}
}
