package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"ringtoned/core/command"
	"ringtoned/model"
)

const testExe = "/opt/ringtoned/ringtoned"

func newTestRegistrar(t *testing.T, fake *command.Fake) *Registrar {
	t.Helper()
	return &Registrar{
		runner:      fake,
		schtasks:    "schtasks",
		prefix:      "Ringtone_",
		executable:  testExe,
		scriptsDir:  filepath.Join(t.TempDir(), "scripts"),
		maxCmdLen:   261,
		timeout:     30 * time.Second,
		testTimeout: 10 * time.Second,
	}
}

func writeRingtone(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestCreateDirectCommand(t *testing.T) {
	fake := &command.Fake{}
	r := newTestRegistrar(t, fake)
	path := writeRingtone(t, t.TempDir(), "wake.wav")

	if err := r.Create(context.Background(), "wake", path, "07:30", []int{1, 3}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	calls := fake.Calls()
	if len(calls) != 1 || calls[0].Name != "schtasks" {
		t.Fatalf("calls = %+v", calls)
	}
	args := calls[0].Args
	if got := argAfter(args, "/tn"); got != "Ringtone_wake" {
		t.Errorf("/tn = %q", got)
	}
	if got, want := argAfter(args, "/tr"), `"`+testExe+`" play "`+path+`"`; got != want {
		t.Errorf("/tr = %q, want %q", got, want)
	}
	if got := argAfter(args, "/d"); got != "MON,WED" {
		t.Errorf("/d = %q", got)
	}
	if got := argAfter(args, "/st"); got != "07:30" {
		t.Errorf("/st = %q", got)
	}
	if args[len(args)-1] != "/f" {
		t.Errorf("missing /f: %v", args)
	}
}

func TestCreateUsesWrapperWhenTooLong(t *testing.T) {
	fake := &command.Fake{}
	r := newTestRegistrar(t, fake)
	path := writeRingtone(t, t.TempDir(), strings.Repeat("long_name_", 22)+".wav")

	if len(PlayCommand(testExe, path)) <= 261 {
		t.Fatal("test path is not long enough")
	}
	if err := r.Create(context.Background(), "long", path, "06:00", []int{0}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	tr := argAfter(fake.Calls()[0].Args, "/tr")
	if len(tr) > 261 {
		t.Fatalf("task command is %d characters", len(tr))
	}
	wrapper := strings.Trim(tr, `"`)
	if filepath.Dir(wrapper) != r.scriptsDir {
		t.Fatalf("wrapper %q not in scripts dir", wrapper)
	}
	body, err := os.ReadFile(wrapper)
	if err != nil {
		t.Fatalf("wrapper not written: %v", err)
	}
	if !strings.Contains(string(body), path) || !strings.Contains(string(body), " play ") {
		t.Fatalf("wrapper does not invoke play for the ringtone:\n%s", body)
	}
}

func TestCreateWrapperPathIsAbsolute(t *testing.T) {
	chdir(t, t.TempDir())
	fake := &command.Fake{}
	r := newTestRegistrar(t, fake)
	r.scriptsDir = "scripts"
	path := writeRingtone(t, t.TempDir(), strings.Repeat("y", 230)+".wav")

	if err := r.Create(context.Background(), "long", path, "06:00", []int{0}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	wrapper := strings.Trim(argAfter(fake.Calls()[0].Args, "/tr"), `"`)
	if !filepath.IsAbs(wrapper) {
		t.Fatalf("task command %q is not absolute", wrapper)
	}
	if _, err := os.Stat(wrapper); err != nil {
		t.Fatalf("wrapper not written: %v", err)
	}
}

func TestWrapperTreatsPathAsData(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh wrapper only")
	}
	work := t.TempDir()
	chdir(t, work)
	r := newTestRegistrar(t, nil)
	r.runner = command.NewExecRunner()
	r.executable = "true"
	path := writeRingtone(t, t.TempDir(), "$(touch marker)`touch marker2`'"+strings.Repeat("x", 220)+".wav")

	if len(PlayCommand(r.executable, path)) <= r.maxCmdLen {
		t.Fatal("test path is not long enough to need a wrapper")
	}
	if err := r.TestPlayback(context.Background(), path); err != nil {
		t.Fatalf("TestPlayback error: %v", err)
	}
	for _, name := range []string{"marker", "marker2"} {
		if _, err := os.Stat(filepath.Join(work, name)); err == nil {
			t.Fatalf("wrapper ran a command embedded in the file name (%s exists)", name)
		}
	}
}

func TestCmdWrapperEscapesPercent(t *testing.T) {
	body := wrapperContent(`C:\rt\ringtoned.exe`, `C:\rt\100%PATH%.wav`, true)
	if !strings.Contains(body, `"C:\rt\100%%PATH%%.wav"`) {
		t.Fatalf("percent signs not doubled:\n%s", body)
	}
	if !strings.HasSuffix(body, " %*\r\n") {
		t.Fatalf("arguments not forwarded:\n%s", body)
	}
}

func TestCreateCommandTooLong(t *testing.T) {
	fake := &command.Fake{}
	r := newTestRegistrar(t, fake)
	r.scriptsDir = filepath.Join(t.TempDir(), strings.Repeat("d", 250))
	path := writeRingtone(t, t.TempDir(), strings.Repeat("x", 240)+".wav")

	err := r.Create(context.Background(), "long", path, "06:00", []int{0})
	if !errors.Is(err, ErrCommandTooLong) {
		t.Fatalf("err = %v, want ErrCommandTooLong", err)
	}
	if n := len(fake.Calls()); n != 0 {
		t.Fatalf("%d scheduler calls, want 0", n)
	}
}

func TestCreateMissingRingtone(t *testing.T) {
	fake := &command.Fake{}
	r := newTestRegistrar(t, fake)

	err := r.Create(context.Background(), "x", filepath.Join(t.TempDir(), "nope.wav"), "07:00", []int{1})
	if !errors.Is(err, ErrRingtoneNotFound) {
		t.Fatalf("err = %v, want ErrRingtoneNotFound", err)
	}
	if len(fake.Calls()) != 0 {
		t.Fatal("no subprocess should run for a missing ringtone")
	}
}

func TestCreateInvalidSchedule(t *testing.T) {
	fake := &command.Fake{}
	r := newTestRegistrar(t, fake)
	path := writeRingtone(t, t.TempDir(), "a.wav")

	if err := r.Create(context.Background(), "x", path, "07:00", []int{9}); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("err = %v, want ErrInvalidDay", err)
	}
	if err := r.Create(context.Background(), "x", path, "25:00", []int{1}); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("err = %v, want ErrInvalidTime", err)
	}
	if len(fake.Calls()) != 0 {
		t.Fatal("invalid input must not reach the scheduler")
	}
}

func TestCommandFailure(t *testing.T) {
	fake := &command.Fake{Handler: func(string, []string) (command.Result, error) {
		return command.Result{ExitCode: 1, Stderr: "ERROR: The system cannot find the file specified."}, nil
	}}
	r := newTestRegistrar(t, fake)

	for name, op := range map[string]func(context.Context, string) error{
		"delete":  r.Delete,
		"enable":  r.Enable,
		"disable": r.Disable,
	} {
		if err := op(context.Background(), "gone"); !errors.Is(err, ErrCommandFailed) {
			t.Errorf("%s: err = %v, want ErrCommandFailed", name, err)
		}
	}

	args := fake.Calls()
	for _, c := range args {
		if argAfter(c.Args, "/tn") != "Ringtone_gone" {
			t.Errorf("unexpected task name in %v", c.Args)
		}
	}
}

const sampleList = `"HostName","TaskName","Next Run Time","Status"
"DESK","\Ringtone_wake","21/10/2026 07:30:00","Ready"
"DESK","\Microsoft\Office\Update","N/A","Ready"
"DESK","\Ringtone_lunch, break","N/A","Disabled"

"HostName","TaskName","Next Run Time","Status"
"DESK","\Other","N/A","Ready"
`

func TestList(t *testing.T) {
	fake := &command.Fake{Handler: func(string, []string) (command.Result, error) {
		return command.Result{Stdout: sampleList}, nil
	}}
	r := newTestRegistrar(t, fake)

	tasks, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	want := []model.TaskInfo{
		{Name: "wake", FullName: "Ringtone_wake", Status: model.TaskStatusUnknown},
		{Name: "lunch, break", FullName: "Ringtone_lunch, break", Status: model.TaskStatusUnknown},
	}
	if len(tasks) != len(want) {
		t.Fatalf("tasks = %+v", tasks)
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("tasks[%d] = %+v, want %+v", i, tasks[i], want[i])
		}
	}
}

func TestListWithoutHeader(t *testing.T) {
	got := parseTaskList("\"\\Ringtone_a\",\"x\"\n\"\\Other\",\"y\"\n", "Ringtone_")
	if len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("parseTaskList = %+v", got)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{out: "\"HostName\",\"TaskName\",\"Status\"\n\"DESK\",\"\\Ringtone_a\",\"Disabled\"\n", want: model.TaskStatusDisabled},
		{out: "\"HostName\",\"TaskName\",\"Status\"\n\"DESK\",\"\\Ringtone_a\",\"Running\"\n", want: model.TaskStatusRunning},
		{out: "\"HostName\",\"TaskName\",\"State\"\n\"DESK\",\"\\Ringtone_a\",\"Ready\"\n", want: model.TaskStatusReady},
		{out: "", want: model.TaskStatusUnknown},
	}
	for _, tt := range tests {
		out := tt.out
		fake := &command.Fake{Handler: func(string, []string) (command.Result, error) {
			return command.Result{Stdout: out}, nil
		}}
		r := newTestRegistrar(t, fake)
		got, err := r.Status(context.Background(), "a")
		if err != nil {
			t.Fatalf("Status error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Status = %q, want %q", got, tt.want)
		}
	}
}

func TestTestPlaybackMissingFile(t *testing.T) {
	fake := &command.Fake{}
	r := newTestRegistrar(t, fake)

	err := r.TestPlayback(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, ErrRingtoneNotFound) {
		t.Fatalf("err = %v, want ErrRingtoneNotFound", err)
	}
	if len(fake.Calls()) != 0 {
		t.Fatal("no subprocess should run for a missing file")
	}
}

func TestTestPlaybackRunsPlayer(t *testing.T) {
	fake := &command.Fake{}
	r := newTestRegistrar(t, fake)
	path := writeRingtone(t, t.TempDir(), "a.wav")

	if err := r.TestPlayback(context.Background(), path); err != nil {
		t.Fatalf("TestPlayback error: %v", err)
	}
	c := fake.Calls()[0]
	if c.Name != testExe || strings.Join(c.Args, " ") != "play "+path {
		t.Fatalf("call = %+v", c)
	}
	if c.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v, want 10s", c.Timeout)
	}
}

func TestTestPlaybackFailure(t *testing.T) {
	fake := &command.Fake{Handler: func(string, []string) (command.Result, error) {
		return command.Result{ExitCode: -1}, command.ErrTimeout
	}}
	r := newTestRegistrar(t, fake)
	path := writeRingtone(t, t.TempDir(), "a.wav")

	if err := r.TestPlayback(context.Background(), path); !errors.Is(err, command.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
