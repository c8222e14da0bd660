package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword は端末からエコーなしでパスワードを読む。テストで差し替える。
var readPassword = term.ReadPassword

// isTerminal はファイルディスクリプタが端末かどうかを返す。テストで差し替える。
var isTerminal = term.IsTerminal

// promptLine はプロンプトを表示して1行読み込む。
func promptLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword はパスワードを読み込む。標準入力が端末であればエコーしない。
func promptPassword(reader *bufio.Reader, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		line, err := promptLine(reader, w, "パスワード")
		return line, err
	}

	if _, err := fmt.Fprint(w, "パスワード: "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
