package cli

import (
	"github.com/spf13/pflag"
)

// Flag is the interface for cli flags.
// To get the value after cli parsing, use fs.GetString(flag.Name)
type Flag interface {
	RegisterTo(fs *pflag.FlagSet) error
}

// StringFlag is the flag with string value
type StringFlag struct {
	Name       string
	Shorthand  string
	Usage      string
	Deprecated string
	Hidden     bool

	DefValue string
}

// RegisterTo register the string flag to FlagSet
func (f StringFlag) RegisterTo(fs *pflag.FlagSet) error {
	fs.StringP(f.Name, f.Shorthand, f.DefValue, f.Usage)
	return markHiddenOrDeprecated(fs, f.Name, f.Deprecated, f.Hidden)
}

// BoolFlag is the flag with boolean value
type BoolFlag struct {
	Name       string
	Shorthand  string
	Usage      string
	Deprecated string
	Hidden     bool

	DefValue bool
}

// RegisterTo register the boolean flag to FlagSet
func (f BoolFlag) RegisterTo(fs *pflag.FlagSet) error {
	fs.BoolP(f.Name, f.Shorthand, f.DefValue, f.Usage)
	return markHiddenOrDeprecated(fs, f.Name, f.Deprecated, f.Hidden)
}

// IntFlag is the flag with int value
type IntFlag struct {
	Name       string
	Shorthand  string
	Usage      string
	Deprecated string
	Hidden     bool

	DefValue int
}

// RegisterTo register the int flag to FlagSet
func (f IntFlag) RegisterTo(fs *pflag.FlagSet) error {
	fs.IntP(f.Name, f.Shorthand, f.DefValue, f.Usage)
	return markHiddenOrDeprecated(fs, f.Name, f.Deprecated, f.Hidden)
}

// Uint64Flag is the flag with uint64 value
type Uint64Flag struct {
	Name       string
	Shorthand  string
	Usage      string
	Deprecated string
	Hidden     bool

	DefValue uint64
}

// RegisterTo register the uint64 flag to FlagSet
func (f Uint64Flag) RegisterTo(fs *pflag.FlagSet) error {
	fs.Uint64P(f.Name, f.Shorthand, f.DefValue, f.Usage)
	return markHiddenOrDeprecated(fs, f.Name, f.Deprecated, f.Hidden)
}

func markHiddenOrDeprecated(fs *pflag.FlagSet, name string, deprecated string, hidden bool) error {
	if len(deprecated) != 0 {
		if err := fs.MarkDeprecated(name, deprecated); err != nil {
			return err
		}
	} else if hidden {
		if err := fs.MarkHidden(name); err != nil {
			return err
		}
	}
	return nil
}

func getFlagName(flag Flag) string {
	switch f := flag.(type) {
	case StringFlag:
		return f.Name
	case IntFlag:
		return f.Name
	case BoolFlag:
		return f.Name
	case Uint64Flag:
		return f.Name
	}
	return ""
}
