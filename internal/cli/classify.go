package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chromatag/internal/colour"
	"github.com/jmylchreest/chromatag/internal/config"
	"github.com/jmylchreest/chromatag/internal/image"
	"github.com/jmylchreest/chromatag/internal/pipeline"
)

var (
	// Classify command flags
	classifyFormat   string
	classifyClusters bool
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Classify a single product image",
	Long: `Classify a single product image into a colour category.

The image's pixels are clustered to find its dominant colour, which is
then matched against the colour categories in the settings file. The
result is the category identifier, the distance to the category's
reference colour, and the dominant colour's share of the image.

The image may be a local file (JPEG, PNG, GIF, WebP) or an HTTP(S) URL.

Examples:
  # Classify a local photo
  chromatag classify product.jpg

  # Classify a remote photo with an alternative settings file
  chromatag -C configs/shop.yaml classify https://example.com/p/123.jpg

  # Show the extracted colour clusters behind the decision
  chromatag classify --clusters product.jpg

  # Machine-readable output
  chromatag classify --format json product.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "table", "output format (table, json, plain)")
	classifyCmd.Flags().BoolVar(&classifyClusters, "clusters", false, "also print the extracted colour clusters")
}

// classifyOutput is the JSON shape of a single classification.
type classifyOutput struct {
	Image    string          `json:"image"`
	Category string          `json:"category,omitempty"`
	ID       string          `json:"id"`
	Distance float64         `json:"distance"`
	Weight   float64         `json:"weight"`
	Unknown  bool            `json:"unknown"`
	Clusters []clusterOutput `json:"clusters,omitempty"`
}

type clusterOutput struct {
	Hex    string  `json:"hex"`
	Weight float64 `json:"weight"`
}

// runClassify executes the classify command.
func runClassify(cmd *cobra.Command, args []string) error {
	imagePath := args[0]

	if err := image.ValidateImagePath(imagePath); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	cfg, err := config.Load(globalConfig)
	if err != nil {
		return err
	}

	classifier, err := pipeline.New(cfg, newLogger())
	if err != nil {
		return err
	}

	result, clusters, err := classifier.Inspect(cmd.Context(), imagePath)
	if err != nil {
		return err
	}

	switch classifyFormat {
	case "json":
		return printJSON(imagePath, result, clusters)
	case "plain":
		fmt.Println(result.CategoryID)
		return nil
	case "table":
		printTable(imagePath, result, clusters)
		return nil
	default:
		return fmt.Errorf("unknown format: %s (valid formats: table, json, plain)", classifyFormat)
	}
}

func printJSON(imagePath string, result colour.Result, clusters []colour.Cluster) error {
	out := classifyOutput{
		Image:    imagePath,
		Category: result.CategoryName,
		ID:       result.CategoryID,
		Distance: result.Distance,
		Weight:   result.Weight,
		Unknown:  result.Unknown,
	}
	if classifyClusters {
		for _, c := range clusters {
			out.Clusters = append(out.Clusters, clusterOutput{Hex: c.RGB().Hex(), Weight: c.Weight})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printTable(imagePath string, result colour.Result, clusters []colour.Cluster) {
	category := result.CategoryName
	if result.Unknown {
		category = "(unknown)"
	}

	table := NewTable([]string{"Image", "Category", "ID", "Distance", "Weight"})
	table.AddRow([]string{
		imagePath,
		category,
		result.CategoryID,
		formatFloat(result.Distance),
		formatFloat(result.Weight),
	})
	fmt.Print(table.Render())

	if classifyClusters {
		fmt.Println()
		clusterTable := NewTable([]string{"#", "Colour", "Weight"})
		for i, c := range clusters {
			clusterTable.AddRow([]string{
				strconv.Itoa(i),
				c.RGB().Hex(),
				formatFloat(c.Weight),
			})
		}
		fmt.Print(clusterTable.Render())
	}

	if result.Unknown {
		fmt.Fprintln(os.Stderr, "no category within the distance threshold; flag for manual review")
	}
}

// formatFloat renders distances and weights compactly.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
