package vsnap_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"vsnap-go/internal/testutil"
	"vsnap-go/internal/vsnap"
)

type testEnv struct {
	fs    *testutil.MockFilesystemManager
	clock *testutil.StubClock
	svc   *vsnap.Service
}

// newTestEnv returns a service over a mock filesystem holding an
// initialized repository at /work, with the clock at 2021-03-04 09:15.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	m := testutil.NewMockFilesystemManager()
	m.AddDirectory("/work/.vsnap")
	m.AddDirectory("/work/sub")
	clock := testutil.FixedClock()
	return &testEnv{
		fs:    m,
		clock: clock,
		svc:   vsnap.NewService(m, nil, nil, vsnap.NewNopLogger(), clock, "test-host"),
	}
}

// addSnapshot places a stored snapshot directly into /work/.vsnap.
func (e *testEnv) addSnapshot(name string, ts vsnap.Timestamp, content string) {
	e.fs.AddFile("/work/.vsnap/"+vsnap.EncodeSnapshotName(name, ts), []byte(content))
}

func TestService_EndToEnd(t *testing.T) {
	m := testutil.NewMockFilesystemManager()
	m.AddDirectory("/work/sub")
	svc := vsnap.NewService(m, nil, nil, vsnap.NewNopLogger(), testutil.FixedClock(), "test-host")

	if result, err := svc.Init("/work"); err != nil || result != vsnap.InitCreated {
		t.Fatalf("Init() = %v, %v", result, err)
	}

	m.AddFile("/work/notes.txt", []byte("v1"))
	saved, err := svc.Save("/work", "notes.txt")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.StoredPath != "/work/.vsnap/4.3.2021.9.15.notes.txt" {
		t.Errorf("StoredPath = %q", saved.StoredPath)
	}

	result, err := svc.Restore("/work/sub", []string{"4.3.2021", "notes.txt"}, nil)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.Outcome != vsnap.OutcomeRestored {
		t.Fatalf("Outcome = %v, want restored", result.Outcome)
	}
	if result.Target != "/work/sub/notes.txt" {
		t.Errorf("Target = %q", result.Target)
	}
	got, ok := m.ReadFile("/work/sub/notes.txt")
	if !ok || string(got) != "v1" {
		t.Errorf("restored content = %q, %v; want v1", got, ok)
	}
}

func TestService_Save(t *testing.T) {
	t.Run("stores under encoded name", func(t *testing.T) {
		env := newTestEnv(t)
		env.fs.AddFile("/work/sub/report.tar.gz", []byte("data"))

		result, err := env.svc.Save("/work/sub", "report.tar.gz")
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if result.StoredName != "4.3.2021.9.15.report.tar.gz" {
			t.Errorf("StoredName = %q", result.StoredName)
		}
		if result.Repository != "/work/.vsnap" {
			t.Errorf("Repository = %q", result.Repository)
		}
		if got, _ := env.fs.ReadFile(result.StoredPath); string(got) != "data" {
			t.Errorf("stored content = %q", got)
		}
	})

	t.Run("absolute path", func(t *testing.T) {
		env := newTestEnv(t)
		env.fs.AddFile("/work/a.txt", []byte("a"))

		if _, err := env.svc.Save("/work/sub", "/work/a.txt"); err != nil {
			t.Errorf("Save() error = %v", err)
		}
	})

	t.Run("duplicate in same minute keeps first copy", func(t *testing.T) {
		env := newTestEnv(t)
		env.fs.AddFile("/work/notes.txt", []byte("first"))
		if _, err := env.svc.Save("/work", "notes.txt"); err != nil {
			t.Fatalf("first Save() error = %v", err)
		}

		env.fs.AddFile("/work/notes.txt", []byte("second"))
		env.clock.Advance(30 * time.Second)
		if _, err := env.svc.Save("/work", "notes.txt"); !errors.Is(err, vsnap.ErrDuplicateSnapshot) {
			t.Fatalf("second Save() error = %v, want ErrDuplicateSnapshot", err)
		}

		entries, _ := env.fs.ReadDir("/work/.vsnap")
		if len(entries) != 1 {
			t.Fatalf("repository holds %d entries, want 1", len(entries))
		}
		if got, _ := env.fs.ReadFile("/work/.vsnap/4.3.2021.9.15.notes.txt"); string(got) != "first" {
			t.Errorf("stored content = %q, want first", got)
		}
	})

	t.Run("next minute is a new snapshot", func(t *testing.T) {
		env := newTestEnv(t)
		env.fs.AddFile("/work/notes.txt", []byte("v1"))
		env.svc.Save("/work", "notes.txt")
		env.clock.Advance(time.Minute)

		result, err := env.svc.Save("/work", "notes.txt")
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if result.StoredName != "4.3.2021.9.16.notes.txt" {
			t.Errorf("StoredName = %q", result.StoredName)
		}
	})

	errorCases := []struct {
		name    string
		setup   func(env *testEnv)
		cwd     string
		path    string
		wantErr error
	}{
		{name: "missing argument", cwd: "/work", path: "", wantErr: vsnap.ErrMissingFileArgument},
		{name: "absent path", cwd: "/work", path: "nope.txt", wantErr: vsnap.ErrPathNotFound},
		{name: "directory", cwd: "/work", path: "sub", wantErr: vsnap.ErrPathIsDirectory},
		{
			name:    "no repository",
			setup:   func(env *testEnv) { env.fs.AddDirectory("/elsewhere"); env.fs.AddFile("/elsewhere/a.txt", nil) },
			cwd:     "/elsewhere",
			path:    "a.txt",
			wantErr: vsnap.ErrRepositoryNotFound,
		},
		{
			name: "ignored",
			setup: func(env *testEnv) {
				env.fs.AddFile("/work/debug.log", nil)
				env.fs.Ignored = []string{"debug.log"}
			},
			cwd:     "/work",
			path:    "debug.log",
			wantErr: vsnap.ErrIgnoredFile,
		},
		{
			name: "write failure",
			setup: func(env *testEnv) {
				env.fs.AddFile("/work/a.txt", []byte("a"))
				env.fs.WriteErr = errors.New("disk full")
			},
			cwd:     "/work",
			path:    "a.txt",
			wantErr: vsnap.ErrCopyFailed,
		},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(env)
			}
			if _, err := env.svc.Save(tt.cwd, tt.path); !errors.Is(err, tt.wantErr) {
				t.Errorf("Save() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("absent and directory are both invalid input", func(t *testing.T) {
		env := newTestEnv(t)
		for _, p := range []string{"nope.txt", "sub"} {
			if _, err := env.svc.Save("/work", p); !errors.Is(err, vsnap.ErrInvalidInputPath) {
				t.Errorf("Save(%q) error = %v, want ErrInvalidInputPath", p, err)
			}
		}
	})
}

func TestService_FindMatches(t *testing.T) {
	env := newTestEnv(t)
	env.addSnapshot("a", vsnap.Timestamp{Day: 1, Month: 1, Year: 2020, Hour: 11, Minute: 0}, "")
	env.addSnapshot("a", vsnap.Timestamp{Day: 1, Month: 1, Year: 2020, Hour: 10, Minute: 0}, "")
	env.addSnapshot("bar-foo.txt", vsnap.Timestamp{Day: 2, Month: 1, Year: 2020, Hour: 9, Minute: 30}, "")
	env.addSnapshot("foo.txtx", vsnap.Timestamp{Day: 2, Month: 1, Year: 2020, Hour: 9, Minute: 30}, "")
	env.fs.AddFile("/work/.vsnap/README", nil)
	env.fs.AddDirectory("/work/.vsnap/1.1.2020.10.0.dir")

	tests := []struct {
		name      string
		args      []string
		wantNames []string
	}{
		{"date yields both", []string{"1.1.2020", "a"}, []string{"1.1.2020.10.0.a", "1.1.2020.11.0.a"}},
		{"hour narrows to one", []string{"1.1.2020", "10", "a"}, []string{"1.1.2020.10.0.a"}},
		{"minute narrows to one", []string{"1.1.2020", "11.0", "a"}, []string{"1.1.2020.11.0.a"}},
		{"wrong minute", []string{"1.1.2020", "11.1", "a"}, nil},
		{"suffix match", []string{"foo.txt"}, []string{"2.1.2020.9.30.bar-foo.txt"}},
		{"suffix is not prefix", []string{"foo.txtx"}, []string{"2.1.2020.9.30.foo.txtx"}},
		{"no match", []string{"missing.txt"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := vsnap.ParseQuery(tt.args)
			if !ok {
				t.Fatalf("ParseQuery(%q) failed", tt.args)
			}
			matches, err := env.svc.FindMatches("/work/sub", q)
			if err != nil {
				t.Fatalf("FindMatches() error = %v", err)
			}
			var got []string
			for _, m := range matches {
				got = append(got, m.StoredName)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantNames, ",") {
				t.Errorf("matches = %v, want %v", got, tt.wantNames)
			}
		})
	}
}

func TestService_FindMatches_ReadDirError(t *testing.T) {
	env := newTestEnv(t)
	env.fs.ReadDirErr = errors.New("permission denied")

	_, err := env.svc.FindMatches("/work", &vsnap.Query{FileName: "a", Time: vsnap.AnyTime()})
	if !errors.Is(err, vsnap.ErrDirectoryRead) {
		t.Errorf("FindMatches() error = %v, want ErrDirectoryRead", err)
	}
}

func TestService_ListSnapshots(t *testing.T) {
	env := newTestEnv(t)
	env.addSnapshot("b.txt", vsnap.Timestamp{Day: 5, Month: 3, Year: 2021, Hour: 8, Minute: 0}, "bbb")
	env.addSnapshot("a.txt", vsnap.Timestamp{Day: 4, Month: 3, Year: 2021, Hour: 9, Minute: 15}, "a")

	all, err := env.svc.ListSnapshots("/work", "")
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(all) != 2 || all[0].Name != "a.txt" || all[1].Name != "b.txt" {
		t.Fatalf("ListSnapshots() = %v, want a.txt then b.txt", all)
	}
	if all[1].Size != 3 {
		t.Errorf("Size = %d, want 3", all[1].Size)
	}
}

func TestService_Restore(t *testing.T) {
	t.Run("invalid query", func(t *testing.T) {
		env := newTestEnv(t)
		if _, err := env.svc.Restore("/work", nil, nil); !errors.Is(err, vsnap.ErrInvalidRestoreQuery) {
			t.Errorf("Restore() error = %v, want ErrInvalidRestoreQuery", err)
		}
	})

	t.Run("no repository", func(t *testing.T) {
		env := newTestEnv(t)
		env.fs.AddDirectory("/other")
		if _, err := env.svc.Restore("/other", []string{"a"}, nil); !errors.Is(err, vsnap.ErrRepositoryNotFound) {
			t.Errorf("Restore() error = %v, want ErrRepositoryNotFound", err)
		}
	})

	t.Run("no match", func(t *testing.T) {
		env := newTestEnv(t)
		result, err := env.svc.Restore("/work", []string{"a.txt"}, nil)
		if err != nil || result.Outcome != vsnap.OutcomeNoMatch {
			t.Errorf("Restore() = %+v, %v; want no match", result, err)
		}
	})

	t.Run("ambiguous lists every candidate and writes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		env.addSnapshot("a", vsnap.Timestamp{Day: 1, Month: 1, Year: 2020, Hour: 10, Minute: 0}, "ten")
		env.addSnapshot("a", vsnap.Timestamp{Day: 1, Month: 1, Year: 2020, Hour: 11, Minute: 0}, "eleven")

		result, err := env.svc.Restore("/work", []string{"1.1.2020", "a"}, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if result.Outcome != vsnap.OutcomeAmbiguous || len(result.Candidates) != 2 {
			t.Errorf("Restore() = %v with %d candidates, want ambiguous with 2", result.Outcome, len(result.Candidates))
		}
		if _, ok := env.fs.ReadFile("/work/a"); ok {
			t.Error("ambiguous restore wrote a file")
		}
	})

	t.Run("restored overwrites working copy", func(t *testing.T) {
		env := newTestEnv(t)
		env.addSnapshot("a", vsnap.Timestamp{Day: 1, Month: 1, Year: 2020, Hour: 10, Minute: 0}, "ten")
		env.addSnapshot("a", vsnap.Timestamp{Day: 1, Month: 1, Year: 2020, Hour: 11, Minute: 0}, "eleven")
		env.fs.AddFile("/work/a", []byte("current"))

		result, err := env.svc.Restore("/work", []string{"1.1.2020", "10", "a"}, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if result.Outcome != vsnap.OutcomeRestored || result.Snapshot.Timestamp.Hour != 10 {
			t.Fatalf("Restore() = %+v", result)
		}
		if got, _ := env.fs.ReadFile("/work/a"); string(got) != "ten" {
			t.Errorf("restored content = %q, want ten", got)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.addSnapshot("a", vsnap.Timestamp{Day: 1, Month: 1, Year: 2020, Hour: 10, Minute: 0}, "ten")
		env.fs.WriteErr = errors.New("read-only")

		if _, err := env.svc.Restore("/work", []string{"a"}, nil); !errors.Is(err, vsnap.ErrCopyFailed) {
			t.Errorf("Restore() error = %v, want ErrCopyFailed", err)
		}
	})
}

func TestResolve(t *testing.T) {
	one := &vsnap.Match{StoredName: "x"}
	tests := []struct {
		matches []*vsnap.Match
		want    vsnap.RestoreOutcome
	}{
		{nil, vsnap.OutcomeNoMatch},
		{[]*vsnap.Match{one}, vsnap.OutcomeRestored},
		{[]*vsnap.Match{one, one}, vsnap.OutcomeAmbiguous},
	}
	for _, tt := range tests {
		if got := vsnap.Resolve(tt.matches); got != tt.want {
			t.Errorf("Resolve(%d matches) = %v, want %v", len(tt.matches), got, tt.want)
		}
	}
}

func TestService_Encrypted(t *testing.T) {
	m := testutil.NewMockFilesystemManager()
	m.AddDirectory("/work/.vsnap")
	enc := testutil.NewTestEncryptor("secret")
	svc := vsnap.NewService(m, enc, nil, vsnap.NewNopLogger(), testutil.FixedClock(), "test-host")

	m.AddFile("/work/notes.txt", []byte("plain"))
	saved, err := svc.Save("/work", "notes.txt")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !saved.Encrypted {
		t.Error("Encrypted = false")
	}
	stored, _ := m.ReadFile(saved.StoredPath)
	if bytes.Equal(stored, []byte("plain")) {
		t.Error("snapshot stored in plaintext")
	}
	if !enc.IsEncrypted(stored) {
		t.Error("stored snapshot lacks encryption header")
	}

	t.Run("no passphrase source", func(t *testing.T) {
		if _, err := svc.Restore("/work", []string{"notes.txt"}, nil); !errors.Is(err, vsnap.ErrPassphraseRequired) {
			t.Errorf("Restore() error = %v, want ErrPassphraseRequired", err)
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		wrong := func() (string, error) { return "nope", nil }
		if _, err := svc.Restore("/work", []string{"notes.txt"}, wrong); err == nil {
			t.Error("Restore() with wrong passphrase succeeded")
		}
	})

	t.Run("decrypts", func(t *testing.T) {
		right := func() (string, error) { return "secret", nil }
		result, err := svc.Restore("/work", []string{"notes.txt"}, right)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got, _ := m.ReadFile(result.Target); string(got) != "plain" {
			t.Errorf("restored content = %q, want plain", got)
		}
	})

	t.Run("plaintext snapshots need no passphrase", func(t *testing.T) {
		m.AddFile("/work/.vsnap/1.1.2020.0.0.old.txt", []byte("legacy"))
		result, err := svc.Restore("/work", []string{"old.txt"}, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got, _ := m.ReadFile(result.Target); string(got) != "legacy" {
			t.Errorf("restored content = %q, want legacy", got)
		}
	})
}

func TestService_Mirror(t *testing.T) {
	t.Run("no vault", func(t *testing.T) {
		env := newTestEnv(t)
		if _, err := env.svc.Mirror("/work"); !errors.Is(err, vsnap.ErrNoVault) {
			t.Errorf("Mirror() error = %v, want ErrNoVault", err)
		}
	})

	t.Run("save mirrors and mirror fills gaps", func(t *testing.T) {
		m := testutil.NewMockFilesystemManager()
		m.AddDirectory("/work/.vsnap")
		v := testutil.NewTestVault()
		svc := vsnap.NewService(m, nil, v, vsnap.NewNopLogger(), testutil.FixedClock(), "test-host")

		m.AddFile("/work/a.txt", []byte("a"))
		saved, err := svc.Save("/work", "a.txt")
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if !saved.Mirrored || saved.MirrorErr != nil {
			t.Errorf("Mirrored = %v, MirrorErr = %v", saved.Mirrored, saved.MirrorErr)
		}

		// Snapshots that predate the vault.
		m.AddFile("/work/.vsnap/1.1.2020.0.0.old.txt", []byte("old"))
		m.AddFile("/work/.vsnap/2.1.2020.0.0.old.txt", []byte("older"))

		n, err := svc.Mirror("/work")
		if err != nil {
			t.Fatalf("Mirror() error = %v", err)
		}
		if n != 2 {
			t.Errorf("Mirror() uploaded %d, want 2", n)
		}

		prefix := "test-host/" + vsnap.RepositoryKey("/work/.vsnap") + "/"
		keys, _ := v.List(prefix)
		if len(keys) != 3 {
			t.Fatalf("vault holds %d keys, want 3: %v", len(keys), keys)
		}
		var buf bytes.Buffer
		if err := v.Get(prefix+"1.1.2020.0.0.old.txt", &buf); err != nil || buf.String() != "old" {
			t.Errorf("vault content = %q, %v", buf.String(), err)
		}

		if n, _ := svc.Mirror("/work"); n != 0 {
			t.Errorf("second Mirror() uploaded %d, want 0", n)
		}
	})
}

func TestRepositoryKey(t *testing.T) {
	a := vsnap.RepositoryKey("/work/.vsnap")
	if a != vsnap.RepositoryKey("/work/.vsnap") {
		t.Error("RepositoryKey() is not stable")
	}
	if a == vsnap.RepositoryKey("/other/.vsnap") {
		t.Error("RepositoryKey() collides for different roots")
	}
}
