package syscontrol

/*------------------------------------------------------------------
 *
 * Purpose:	Run the external mod-* utilities and manage the
 *		existence-as-truth flag files.
 *
 * Description:	The runner sits behind an interface so the tests can
 *		record invocations instead of forking.  Captured
 *		output is bounded to what fits in one serial reply.
 *
 *---------------------------------------------------------------*/

import (
	"os"
	"os/exec"
	"strings"
)

/* Captured stdout is bounded to one byte less than the message carrier. */
const cli_max_output_size = SP_MAX_MSG_SIZE - 1

type command_runner interface {
	execute(argv []string) bool
	execute_and_get_output(argv []string) (string, bool)
}

type exec_runner struct{}

/*-------------------------------------------------------------------
 *
 * Name:	execute
 *
 * Purpose:	Run a command for its side effect, ignoring output.
 *
 * Returns:	true if the command ran and exited zero.
 *
 *---------------------------------------------------------------*/

func (exec_runner) execute(argv []string) bool {

	var cmd = exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = nil

	var err = cmd.Run()
	if err != nil {
		logger.Debugf("execute %v failed: %s", argv, err)
		return false
	}

	return true
}

/*-------------------------------------------------------------------
 *
 * Name:	execute_and_get_output
 *
 * Purpose:	Run a command and capture its stdout.
 *
 * Returns:	The captured output with a single trailing newline
 *		stripped, truncated to cli_max_output_size bytes.
 *		Empty output counts as failure, same as a nonzero
 *		exit or a failed exec.
 *
 *---------------------------------------------------------------*/

func (exec_runner) execute_and_get_output(argv []string) (string, bool) {

	var cmd = exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = nil

	var output, err = cmd.Output()
	if err != nil {
		logger.Debugf("execute_and_get_output %v failed: %s", argv, err)
		return "", false
	}

	if len(output) == 0 {
		return "", false
	}

	if len(output) > cli_max_output_size {
		output = output[:cli_max_output_size]
	}

	return strings.TrimSuffix(string(output), "\n"), true
}

/*
 * Flag file helpers.  An empty file whose existence is the value.
 */

func create_file(filename string) bool {
	var err = os.WriteFile(filename, nil, 0644)
	if err != nil {
		logger.Errorf("create_file %s failed: %s", filename, err)
		return false
	}
	return true
}

func delete_file(filename string) bool {
	var err = os.Remove(filename)
	if err != nil && !os.IsNotExist(err) {
		logger.Errorf("delete_file %s failed: %s", filename, err)
		return false
	}
	return true
}

func file_exists(filename string) bool {
	var _, err = os.Stat(filename)
	return err == nil
}

/* Reads a small file, stripping a single trailing newline. */
func read_file(filename string) (string, bool) {
	var contents, err = os.ReadFile(filename)
	if err != nil {
		logger.Errorf("read_file %s failed: %s", filename, err)
		return "", false
	}

	if len(contents) > cli_max_output_size {
		contents = contents[:cli_max_output_size]
	}

	return strings.TrimSuffix(string(contents), "\n"), true
}
