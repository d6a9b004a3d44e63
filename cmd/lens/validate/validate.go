package validatecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lens/cmd/lens/output"
	"github.com/papercomputeco/lens/pkg/image"
)

const validateLongDesc string = `Validate local image files.

Each file must exist, have a supported extension (jpg, jpeg, png, gif,
webp, bmp) and be no larger than the size limit. Prints one verdict per
file and fails if any file is invalid.

Examples:
  lens validate cat.png dog.jpg
  lens validate --max-size 1048576 --formats png,jpg photo.png`

const validateShortDesc string = "Validate local image files"

type validateCommander struct {
	maxSize int64
	formats []string
}

func NewValidateCmd() *cobra.Command {
	cmder := &validateCommander{}

	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: validateShortDesc,
		Long:  validateLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	cmd.Flags().Int64Var(&cmder.maxSize, "max-size", image.DefaultMaxSize, "Maximum file size in bytes")
	cmd.Flags().StringSliceVar(&cmder.formats, "formats", image.DefaultFormats, "Accepted file extensions")

	return cmd
}

func (c *validateCommander) run(cmd *cobra.Command, paths []string) error {
	validator := image.NewValidator(image.WithMaxSize(c.maxSize), image.WithFormats(c.formats...))
	printer := output.NewPrinter(cmd.OutOrStdout())

	var invalid int
	for _, path := range paths {
		result := validator.Validate(path)
		if result.Valid {
			printer.OK(path, "")
			continue
		}
		invalid++
		printer.Fail(path, result.Reason)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d images invalid", invalid, len(paths))
	}
	return nil
}
