package reporter

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/models"
)

func TestTextReporterAppendsPerCategory(t *testing.T) {
	dir := t.TempDir()
	paths := map[models.Category]string{
		models.CategoryFunctional: filepath.Join(dir, "output_revised.txt"),
		models.CategoryBoundary:   filepath.Join(dir, "output_boundary_revised.txt"),
		models.CategoryException:  filepath.Join(dir, "output_exception_revised.txt"),
	}
	reporter := NewTextReporter(paths)

	require.NoError(t, reporter.Write(models.NewPassVerdict("PromiseCreation", models.CategoryFunctional, 1, true)))
	require.NoError(t, reporter.Write(models.NewFailVerdict("ErrorHandling", models.CategoryFunctional, 1, true, "missing catch")))
	require.NoError(t, reporter.Write(models.NewFailVerdict("EmptyInput", models.CategoryBoundary, 1, false, "empty")))

	functional, err := os.ReadFile(paths[models.CategoryFunctional])
	require.NoError(t, err)
	require.Equal(t, "PromiseCreation=PASS\nErrorHandling=FAIL\n", string(functional))

	boundary, err := os.ReadFile(paths[models.CategoryBoundary])
	require.NoError(t, err)
	require.Equal(t, "EmptyInput=FAIL\n", string(boundary))

	_, err = os.Stat(paths[models.CategoryException])
	require.True(t, os.IsNotExist(err))
}

func TestTextReporterUnknownCategory(t *testing.T) {
	reporter := NewTextReporter(map[models.Category]string{})

	err := reporter.Write(models.NewPassVerdict("PromiseCreation", models.CategoryFunctional, 1, true))
	require.ErrorContains(t, err, "no text output configured")
}

func TestTextReporterReportsWriteFailure(t *testing.T) {
	reporter := NewTextReporter(map[models.Category]string{
		models.CategoryFunctional: filepath.Join(t.TempDir(), "missing", "output_revised.txt"),
	})

	err := reporter.Write(models.NewPassVerdict("PromiseCreation", models.CategoryFunctional, 1, true))
	require.ErrorContains(t, err, "open")
}

func TestXMLReporterRendersCaseFragment(t *testing.T) {
	reporter := NewXMLReporter(filepath.Join(t.TempDir(), "test-report.xml"))

	fragment, err := reporter.Render(models.NewFailVerdict("Error<Handling>", models.CategoryFunctional, 1, true, "missing catch"))
	require.NoError(t, err)
	require.Equal(t,
		"<case><test-case-type>Fail</test-case-type><name>Error&lt;Handling&gt;</name><status>Fail</status></case>",
		string(fragment))
}

func TestXMLReporterAppendsOneCasePerCallInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test-report.xml")
	reporter := NewXMLReporter(path)

	names := []string{"PromiseCreation", "PromiseChaining", "ErrorHandling", "SequentialFetching"}
	for i, name := range names {
		verdict := models.NewPassVerdict(name, models.CategoryFunctional, 1, true)
		if i%2 == 1 {
			verdict = models.NewFailVerdict(name, models.CategoryFunctional, 1, true, "nope")
		}
		require.NoError(t, reporter.Append(verdict))
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, len(names), strings.Count(string(raw), "<case>"))

	decoder := xml.NewDecoder(strings.NewReader(string(raw)))
	var decoded []xmlCase
	for {
		var item xmlCase
		if err := decoder.Decode(&item); err != nil {
			break
		}
		decoded = append(decoded, item)
	}

	require.Len(t, decoded, len(names))
	for i, item := range decoded {
		require.Equal(t, names[i], item.Name)
		require.Equal(t, item.Status, item.TestCaseType)
	}
	require.Equal(t, "Fail", decoded[1].Status)
}
