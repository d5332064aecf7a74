package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

// filterFlags binds one string flag per supported filter key. Flag names
// use dashes, so price_min becomes --price-min.
type filterFlags map[scrape.FilterKey]*string

func addFilterFlags(cmd *cobra.Command) filterFlags {
	flags := make(filterFlags)
	for _, key := range scrape.FilterKeys() {
		name := strings.ReplaceAll(string(key), "_", "-")
		flags[key] = cmd.Flags().String(name, "", "filter: "+string(key))
	}
	return flags
}

// spec returns the filters that were given a non-empty value.
func (f filterFlags) spec() scrape.FilterSpec {
	spec := make(scrape.FilterSpec)
	for key, v := range f {
		if v != nil && *v != "" {
			spec[key] = *v
		}
	}
	return spec
}
