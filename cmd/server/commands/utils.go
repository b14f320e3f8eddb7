package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNotInteractive = errors.New("refusing to prompt without a terminal, pass --yes to confirm")

// confirm asks a yes/no question on the terminal; anything but y/yes is a no.
func confirm(in io.Reader, stdOut io.Writer, prompt string) (bool, error) {
	if file, ok := in.(*os.File); !ok || !term.IsTerminal(int(file.Fd())) {
		return false, errNotInteractive
	}

	fmt.Fprintf(stdOut, "%s", prompt)

	answer, err := bufio.NewReader(in).ReadString('\n')

	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes", nil
}
