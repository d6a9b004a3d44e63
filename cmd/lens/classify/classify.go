package classifycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lens/pkg/image"
)

const classifyLongDesc string = `Classify an image reference.

Prints one of: file, url, base64, unknown. References starting with a URL
scheme are urls; data:image/ URIs and long base64 strings are base64; paths
that exist or end in an image extension are files.

Examples:
  lens classify ./cat.png
  lens classify https://example.com/cat.png
  lens classify --hint file ./aGVsbG8gd29ybGQhISE=`

const classifyShortDesc string = "Classify an image reference"

type classifyCommander struct {
	hint string
}

func NewClassifyCmd() *cobra.Command {
	cmder := &classifyCommander{}

	cmd := &cobra.Command{
		Use:   "classify <ref>",
		Short: classifyShortDesc,
		Long:  classifyLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.hint, "hint", "", "Declared kind: file, url or base64")

	return cmd
}

func (c *classifyCommander) run(cmd *cobra.Command, ref string) error {
	hint, err := image.ParseKind(c.hint)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), image.ClassifyWithHint(ref, hint).Kind)
	return nil
}
