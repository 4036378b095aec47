package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrEthical07/deliveryAuth/password"
)

// hashPassword reads one line from in and writes its argon2id hash to out.
func hashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	plain := strings.TrimRight(line, "\r\n")
	if plain == "" {
		return errors.New("empty password")
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(plain)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
