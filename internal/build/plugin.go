// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package build

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Plugin header fields rewritten by the build.
const (
	HeaderVersion    = "Version"
	HeaderLicenseURI = "License URI"
	HeaderWoo        = "Woo"
)

// ErrNoHeader is returned when a file has no header comment to edit.
var ErrNoHeader = errors.New("no header comment")

// SetHeader returns src with the header field name set to value. An
// existing field keeps its prefix; a missing one is added as the last
// line of the first comment block.
func SetHeader(src, name, value string) (string, error) {
	value = strings.TrimSpace(strings.NewReplacer("\r", "", "\n", " ").Replace(value))

	re := regexp.MustCompile(`(?m)^([ \t/*#@]*` + regexp.QuoteMeta(name) + `:[ \t]*)[^\r\n]*$`)
	if loc := re.FindStringSubmatchIndex(src); loc != nil {
		return src[:loc[3]] + value + src[loc[1]:], nil
	}

	end := strings.Index(src, "*/")
	if end < 0 {
		return "", ErrNoHeader
	}
	lineStart := strings.LastIndex(src[:end], "\n") + 1
	return src[:lineStart] + " * " + name + ": " + value + "\n" + src[lineStart:], nil
}

// setHeaderInFile applies SetHeader to the file at path in place.
func setHeaderInFile(path, name, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := SetHeader(string(data), name, value)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), info.Mode().Perm())
}

// readFirstLine returns the trimmed first line of the file at path.
func readFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return strings.TrimSpace(sc.Text()), nil
	}
	return "", sc.Err()
}
