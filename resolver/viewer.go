package resolver

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"imagededup/logging"
)

// Viewer shows candidate duplicates in an external image viewer and reads
// the user's keep selection from an input stream. The viewer process is a
// blocking external collaborator with no timeout; the user may take as long
// as they like.
type Viewer struct {
	command string
	in      *bufio.Reader
	out     io.Writer
}

// NewViewer creates a viewer around the given command line, e.g. "feh -.".
// An empty command skips spawning a process and only prompts.
func NewViewer(command string, in io.Reader, out io.Writer) *Viewer {
	return &Viewer{
		command: command,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// Select displays the files and asks which to keep by 1-based index, oldest
// file first. An empty or cancelled selection keeps everything; files are
// never condemned on the strength of an ambiguous answer.
func (v *Viewer) Select(paths []string) ([]string, error) {
	proc := v.spawn(paths)
	defer terminate(proc)

	for i, path := range paths {
		fmt.Fprintf(v.out, "  %d: %s\n", i+1, path)
	}

	for {
		fmt.Fprint(v.out, "Images to keep? [default=all, e.g. 1,3, a for all, c to cancel] ")

		line, err := v.in.ReadString('\n')
		if err != nil && line == "" {
			// Input stream is gone; keep everything
			return paths, nil
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		switch {
		case answer == "" || strings.HasPrefix(answer, "a"):
			return paths, nil
		case strings.HasPrefix(answer, "c"):
			return paths, nil
		}

		chosen, ok := parseSelection(answer, paths)
		if !ok {
			// Input was not well formed, ask again
			continue
		}
		return chosen, nil
	}
}

// parseSelection resolves a comma-separated list of 1-based indices
func parseSelection(answer string, paths []string) ([]string, bool) {
	var chosen []string
	for _, field := range strings.Split(answer, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 1 || n > len(paths) {
			return nil, false
		}
		chosen = append(chosen, paths[n-1])
	}
	return chosen, true
}

// spawn starts the external viewer with the files appended to its command
// line. A failure to start is reported but does not stop the selection
// prompt, so the user can still cancel.
func (v *Viewer) spawn(paths []string) *exec.Cmd {
	args := strings.Fields(v.command)
	if len(args) == 0 {
		return nil
	}

	proc := exec.Command(args[0], append(args[1:], paths...)...)
	if err := proc.Start(); err != nil {
		logging.Warnf("failed to run command: %s", strings.Join(append(args, paths...), " "))
		return nil
	}
	return proc
}

// terminate shuts the viewer process down once a selection has been made
func terminate(proc *exec.Cmd) {
	if proc == nil {
		return
	}
	if proc.Process != nil {
		proc.Process.Kill()
	}
	proc.Wait()
}
