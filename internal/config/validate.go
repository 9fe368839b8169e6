package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

// Validate checks settings that do not depend on the filesystem.
func (c *Config) Validate() error {
	if c.SrcDir == "" {
		return fmt.Errorf("src_dir is required")
	}
	if c.OutDir == "" {
		return fmt.Errorf("out_dir is required")
	}
	if !strings.HasPrefix(c.HeaderExt, ".") || len(c.HeaderExt) < 2 {
		return fmt.Errorf("header_ext must start with a dot, got %q", c.HeaderExt)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("include needs at least one pattern")
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// ValidateDirectories checks that the source directory exists.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.SrcDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s\nHint: Create the directory or use --src-dir to specify a different path", c.SrcDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("source path is not a directory: %s", c.SrcDir)
	}
	return nil
}
