// Command gs4 reconciles a local working directory against a remote git
// branch, preserving any local artifacts under a timestamped name instead
// of discarding them. See SYNC-INSTRUCTIONS.md for the user-facing
// explanation this tool drops into every repo_dir it touches.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"runtime/pprof"

	"github.com/msolo/cmdflag"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/tebeka/atexit"

	"github.com/msolo/gs4/internal/gsconfig"
	"github.com/msolo/gs4/internal/logsink"
	"github.com/msolo/gs4/internal/optout"
	"github.com/msolo/gs4/internal/reconcile"
	"github.com/msolo/gs4/internal/shx"
	"github.com/msolo/gs4/internal/vcs"
	"github.com/msolo/gs4/internal/walk"
)

var cmdMain = &cmdflag.Command{
	Name: "gs4",
	UsageLong: `gs4 - reconcile a working directory against a remote git branch

gs4 <repo_url> <branch> <repo_dir>

On every run, gs4 brings repo_dir to match origin/<branch> exactly for
every upstream-owned file, while preserving anything the user added,
modified, or left untracked under a name suffixed with an invocation
timestamp. Upstream-owned files are left read-only; upstream-owned
directories stay writable so the next run can still operate on them.

A user can disable gs4 entirely by creating ~/.git-sync-off.

gs4 reads optional shell-runner tunables from ~/.gs4.jsonc.
`,
	Flags: []cmdflag.Flag{
		{"v", cmdflag.FlagTypeBool, false, "print debug-level log output", nil},
		{"p", cmdflag.FlagTypeBool, false, "enable CPU profiling and print a top-100 report on exit", nil},
	},
	Args: cmdflag.PredictNothing,
	Run:  runSync,
}

func exitOnError(log logsink.Logger, err error) {
	if err == nil {
		return
	}
	if log != nil {
		log.Criticalf("%s", err)
	}
	atexit.Fatal(err)
}

func runSync(ctx context.Context, cmd *cmdflag.Command, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: gs4 <repo_url> <branch> <repo_dir>")
		atexit.Exit(2)
		return
	}
	repoURL, branch, repoDir := args[0], args[1], args[2]

	home, err := os.UserHomeDir()
	if err != nil {
		if u, uerr := user.Current(); uerr == nil {
			home = u.HomeDir
		}
	}
	if home != "" && optout.Enabled(home) {
		fmt.Fprintln(os.Stderr, "gs4: disabled via ~/.git-sync-off, doing nothing")
		return
	}

	cwd, err := os.Getwd()
	exitOnError(nil, err)

	programDir := cwd
	if exe, eerr := os.Executable(); eerr == nil {
		programDir = filepath.Dir(exe)
	}

	sink, err := logsink.Open(cwd, repoDir)
	exitOnError(nil, err)
	logsink.SetLevel(*flagVerbose)

	if sink.Interactive() {
		fmt.Fprintf(os.Stderr, "gs4: syncing %s (%s) into %s\n", repoURL, branch, repoDir)
	}

	if *flagProfile {
		f, err := os.Create("gs4.cpu.prof")
		exitOnError(sink, err)
		pprof.StartCPUProfile(f)
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			reportTop100("gs4.cpu.prof")
		}()
	}

	tunables, err := gsconfig.Load(home)
	exitOnError(sink, err)

	shellRunner := &shx.Runner{
		Timeout:     tunables.ShellTimeout(shx.DefaultTimeout),
		Interpreter: tunables.Interpreter(shx.DefaultInterpreter),
		Preamble:    tunables.Preamble(shx.DefaultPreamble),
	}

	syncer := reconcile.New(repoURL, branch, repoDir, programDir, vcs.NewGit(shellRunner), walk.FS{ExcludePaths: tunables.ExcludePaths}, sink)

	err = syncer.Sync(ctx)
	if err != nil {
		closeErr := sink.Close(err)
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "gs4: failed to finalize log: %s\n", closeErr)
		}
		atexit.Fatal(err)
		return
	}
	exitOnError(sink, sink.Close(nil))
}

// reportTop100 shells out to the external "pprof" tool to print a top-100
// report sorted by cumulative time, matching the workflow reposurgeon
// documents for its own runtime/pprof profiles (net/http/pprof and
// runtime/pprof are the stdlib writers; nothing in the example pack
// imports a library to parse the resulting profile, so gs4 doesn't either
// -- it just invokes the separately-installed pprof binary, same as any Go
// developer would). If pprof cannot be run, it prints the equivalent
// `go tool pprof` command instead.
func reportTop100(profilePath string) {
	cmd := exec.Command("pprof", "-top", "-cum", "-nodecount=100", profilePath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gs4: could not run pprof (%s); wrote CPU profile to %s; inspect with:\n  go tool pprof -top -cum -nodecount=100 %s\n", err, profilePath, profilePath)
	}
}

var (
	flagVerbose = new(bool)
	flagProfile = new(bool)
)

func main() {
	defer atexit.Exit(0)

	cmdMain.BindFlagSet(map[string]interface{}{"v": flagVerbose, "p": flagProfile})

	completion := &complete.Command{
		Args: predict.Files("*"),
		Flags: map[string]complete.Predictor{
			"v": predict.Nothing,
			"p": predict.Nothing,
		},
	}
	completion.Complete("gs4")

	cmd, args := cmdflag.Parse(cmdMain, nil)
	cmd.Run(context.Background(), cmd, args)
}
