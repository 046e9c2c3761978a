package pageops_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/drivepay"
	"github.com/lvillar/drivepay/pageops"
)

// createTestPDF generates a PDF with numPages labeled pages.
func createTestPDF(t *testing.T, label string, numPages int) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= numPages; i++ {
		pdf.AddPage()
		pdf.Text(20, 30, fmt.Sprintf("%s page %d of %d", label, i, numPages))
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func doc(name string, b []byte) pageops.SourceDocument {
	return pageops.SourceDocument{Bytes: b, DisplayName: name}
}

func TestMergePreservesOrderAndContent(t *testing.T) {
	a := createTestPDF(t, "A", 2)
	b := createTestPDF(t, "B", 3)

	merged, err := pageops.Merge(context.Background(), doc("a.pdf", a), doc("b.pdf", b))
	require.NoError(t, err)
	assert.Equal(t, 5, merged.PageCount)

	n, err := pageops.PageCount(merged.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	srcA, err := pageops.PageContents(a)
	require.NoError(t, err)
	srcB, err := pageops.PageContents(b)
	require.NoError(t, err)
	out, err := pageops.PageContents(merged.Bytes)
	require.NoError(t, err)

	want := append(append([][]byte{}, srcA...), srcB...)
	require.Len(t, out, len(want))
	for i := range want {
		assert.Equal(t, want[i], out[i], "page %d", i+1)
	}
	assert.Contains(t, string(out[0]), "A page 1 of 2")
	assert.Contains(t, string(out[2]), "B page 1 of 3")
	assert.Contains(t, string(out[4]), "B page 3 of 3")
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	a := createTestPDF(t, "A", 1)
	b := createTestPDF(t, "B", 1)
	aCopy := bytes.Clone(a)
	bCopy := bytes.Clone(b)

	_, err := pageops.Merge(context.Background(), doc("a.pdf", a), doc("b.pdf", b))
	require.NoError(t, err)
	assert.Equal(t, aCopy, a)
	assert.Equal(t, bCopy, b)
}

func TestMergeInsufficientInput(t *testing.T) {
	single := createTestPDF(t, "A", 4)

	tests := []struct {
		name string
		docs []pageops.SourceDocument
	}{
		{"empty", nil},
		{"single", []pageops.SourceDocument{doc("a.pdf", single)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, err := pageops.Merge(context.Background(), tt.docs...)
			assert.Nil(t, merged)
			require.ErrorIs(t, err, drivepay.ErrInsufficientInput)
			assert.NotErrorIs(t, err, drivepay.ErrMalformedDocument)
		})
	}
}

func TestMergeMalformedNamesDocument(t *testing.T) {
	a := createTestPDF(t, "A", 1)
	c := createTestPDF(t, "C", 2)

	for _, parallelism := range []int{1, 4} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			combiner := pageops.NewCombiner(pageops.WithParallelism(parallelism))
			merged, err := combiner.Merge(context.Background(),
				doc("a.pdf", a),
				doc("broken.pdf", []byte("this is not a pdf")),
				doc("c.pdf", c),
			)
			assert.Nil(t, merged)
			require.ErrorIs(t, err, drivepay.ErrMalformedDocument)

			var malformed *drivepay.MalformedDocumentError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, 1, malformed.Index)
			assert.Equal(t, "broken.pdf", malformed.Name)
			assert.Equal(t, "broken.pdf could not be read as a PDF document.", drivepay.Describe(err))
		})
	}
}

func TestMergeReportsLowestMalformedIndex(t *testing.T) {
	a := createTestPDF(t, "A", 1)
	for parallelism := 1; parallelism <= 4; parallelism++ {
		for range 5 {
			_, err := pageops.NewCombiner(pageops.WithParallelism(parallelism)).Merge(context.Background(),
				doc("a.pdf", a),
				doc("first.pdf", []byte("garbage")),
				doc("second.pdf", nil),
				doc("third.pdf", []byte("%PDF-1.4 truncated")),
			)
			var malformed *drivepay.MalformedDocumentError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, 1, malformed.Index, "parallelism %d", parallelism)
			assert.Equal(t, "first.pdf", malformed.Name, "parallelism %d", parallelism)
		}
	}
}

func TestMergeDeterministic(t *testing.T) {
	a := createTestPDF(t, "A", 2)
	b := createTestPDF(t, "B", 1)

	first, err := pageops.Merge(context.Background(), doc("a.pdf", a), doc("b.pdf", b))
	require.NoError(t, err)
	second, err := pageops.Merge(context.Background(), doc("a.pdf", a), doc("b.pdf", b))
	require.NoError(t, err)

	assert.Equal(t, first.PageCount, second.PageCount)

	c1, err := pageops.PageContents(first.Bytes)
	require.NoError(t, err)
	c2, err := pageops.PageContents(second.Bytes)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestMergeStrictValidation(t *testing.T) {
	a := createTestPDF(t, "A", 1)
	b := createTestPDF(t, "B", 1)

	merged, err := pageops.NewCombiner(pageops.WithStrictValidation()).
		Merge(context.Background(), doc("a.pdf", a), doc("b.pdf", b))
	require.NoError(t, err)
	assert.Equal(t, 2, merged.PageCount)
}

func TestMergeCancelled(t *testing.T) {
	a := createTestPDF(t, "A", 1)
	b := createTestPDF(t, "B", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	merged, err := pageops.Merge(ctx, doc("a.pdf", a), doc("b.pdf", b))
	assert.Nil(t, merged)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := filepath.Join(dir, "doc1.pdf")
	file2 := filepath.Join(dir, "doc2.pdf")
	output := filepath.Join(dir, "merged.pdf")

	require.NoError(t, os.WriteFile(file1, createTestPDF(t, "A", 2), 0o644))
	require.NoError(t, os.WriteFile(file2, createTestPDF(t, "B", 3), 0o644))

	merged, err := pageops.MergeFiles(context.Background(), output, file1, file2)
	require.NoError(t, err)
	assert.Equal(t, 5, merged.PageCount)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, merged.Bytes, data)
}

func TestMergeFilesLeavesNoOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	bad := filepath.Join(dir, "bad.pdf")
	output := filepath.Join(dir, "merged.pdf")

	require.NoError(t, os.WriteFile(good, createTestPDF(t, "A", 1), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o644))

	_, err := pageops.MergeFiles(context.Background(), output, good, bad)
	var malformed *drivepay.MalformedDocumentError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "bad.pdf", malformed.Name)

	_, statErr := os.Stat(output)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestMergeTo(t *testing.T) {
	var buf bytes.Buffer
	err := pageops.MergeTo(context.Background(), &buf,
		doc("a.pdf", createTestPDF(t, "A", 1)),
		doc("b.pdf", createTestPDF(t, "B", 1)),
	)
	require.NoError(t, err)

	n, err := pageops.PageCount(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInspect(t *testing.T) {
	info, err := pageops.Inspect(createTestPDF(t, "A", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, info.PageCount)
	assert.NotEmpty(t, info.Version)
	require.Len(t, info.Pages, 3)
	assert.Equal(t, 2, info.Pages[1].Number)
	assert.InDelta(t, 595.28, info.Pages[0].Width, 0.5)
	assert.InDelta(t, 841.89, info.Pages[0].Height, 0.5)

	_, err = pageops.Inspect([]byte("nope"))
	assert.Error(t, err)
}

func TestNumberPages(t *testing.T) {
	src := createTestPDF(t, "A", 3)

	out, err := pageops.NumberPages(src, pageops.PageNumberStyle{Position: pageops.BottomRight})
	require.NoError(t, err)

	contents, err := pageops.PageContents(out)
	require.NoError(t, err)
	require.Len(t, contents, 3)
	assert.Contains(t, string(contents[0]), "Page 1 of 3")
	assert.Contains(t, string(contents[2]), "Page 3 of 3")
}

func TestWatermarkSelectedPages(t *testing.T) {
	src := createTestPDF(t, "A", 2)

	out, err := pageops.Watermark(src, pageops.TextWatermark{Text: "DUPLICATE", Pages: []int{1}})
	require.NoError(t, err)

	contents, err := pageops.PageContents(out)
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Contains(t, string(contents[0]), "DUPLICATE")
	assert.NotContains(t, string(contents[1]), "DUPLICATE")

	_, err = pageops.Watermark(src, pageops.TextWatermark{})
	assert.Error(t, err)
}

func TestParsePosition(t *testing.T) {
	assert.Equal(t, pageops.TopRight, pageops.ParsePosition("top-right"))
	assert.Equal(t, pageops.BottomLeft, pageops.ParsePosition("bottomLeft"))
	assert.Equal(t, pageops.Center, pageops.ParsePosition("CENTER"))
	assert.Equal(t, pageops.TopCenter, pageops.ParsePosition(" Top_Center "))
	assert.Equal(t, pageops.BottomRight, pageops.ParsePosition("bottom right"))
	assert.Equal(t, pageops.BottomCenter, pageops.ParsePosition("somewhere"))
}
