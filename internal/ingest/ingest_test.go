package ingest

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files    []*File
	contents map[string]string
}

var _ FileSource = (*fakeSource)(nil)

func (f *fakeSource) add(id, name, content string) {
	if f.contents == nil {
		f.contents = make(map[string]string)
	}
	f.files = append(f.files, &File{ID: id, Name: name})
	f.contents[id] = content
}

func (f *fakeSource) ListFolder(folderID string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeSource) GetFile(fileID string) (*File, error) {
	for _, file := range f.files {
		if file.ID == fileID {
			return file, nil
		}
	}
	return nil, fmt.Errorf("file not found: %s", fileID)
}

func (f *fakeSource) Download(fileID string, w io.Writer) error {
	content, ok := f.contents[fileID]
	if !ok {
		return fmt.Errorf("file not found: %s", fileID)
	}
	_, err := io.WriteString(w, content)
	return err
}

type fakeDemandStore struct {
	records []domain.DemandRecord
	err     error
}

func (f *fakeDemandStore) ListSince(ctx context.Context, days int) ([]domain.DemandRecord, error) {
	return f.records, nil
}

func (f *fakeDemandStore) InsertBatch(ctx context.Context, records []domain.DemandRecord) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.records = append(f.records, records...)
	return len(records), nil
}

func (f *fakeDemandStore) Count(ctx context.Context) (int, error) {
	return len(f.records), nil
}

const goodCSV = "blood_type,region,date,units\nO+,Noida,2026-03-02,5\nA+,Noida,2026-03-03,6"

func TestIngestFileLoadsExport(t *testing.T) {
	source := &fakeSource{}
	source.add("f1", "march.csv", goodCSV)
	store := &fakeDemandStore{}

	ingestor := NewIngestor(source, store)

	result, err := ingestor.IngestFile(context.Background(), "f1")
	require.NoError(t, err)

	assert.Equal(t, "march.csv", result.Name)
	assert.Equal(t, 2, result.Rows)
	require.Len(t, store.records, 2)
	assert.Equal(t, "O+", store.records[0].BloodType)
}

func TestIngestFileUnsupportedType(t *testing.T) {
	source := &fakeSource{}
	source.add("f1", "notes.pdf", "not a demand export")
	store := &fakeDemandStore{}

	ingestor := NewIngestor(source, store)

	_, err := ingestor.IngestFile(context.Background(), "f1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
	assert.Empty(t, store.records)
}

func TestIngestFileUnknownID(t *testing.T) {
	ingestor := NewIngestor(&fakeSource{}, &fakeDemandStore{})

	_, err := ingestor.IngestFile(context.Background(), "missing")
	require.Error(t, err)
}

func TestIngestFolderSkipsBrokenExports(t *testing.T) {
	source := &fakeSource{}
	source.add("f1", "good.csv", goodCSV)
	source.add("f2", "bad.csv", "blood_type,region,date,units\nO%,Noida,2026-03-02,5")
	source.add("f3", "readme.txt", "ignored entirely")
	store := &fakeDemandStore{}

	ingestor := NewIngestor(source, store)

	report, err := ingestor.IngestFolder(context.Background(), "folder")
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesSeen)
	assert.Equal(t, 1, report.FilesLoaded)
	assert.Equal(t, 2, report.RowsInserted)
	require.Len(t, report.Results, 2)

	assert.Empty(t, report.Results[0].Error)
	assert.NotEmpty(t, report.Results[1].Error)
	assert.Equal(t, "bad.csv", report.Results[1].Name)

	// Only the good file's rows landed
	assert.Len(t, store.records, 2)
}

func TestIngestFolderStoreFailure(t *testing.T) {
	source := &fakeSource{}
	source.add("f1", "good.csv", goodCSV)
	store := &fakeDemandStore{err: fmt.Errorf("connection refused")}

	ingestor := NewIngestor(source, store)

	report, err := ingestor.IngestFolder(context.Background(), "folder")
	require.NoError(t, err)

	assert.Equal(t, 0, report.FilesLoaded)
	require.Len(t, report.Results, 1)
	assert.Contains(t, report.Results[0].Error, "connection refused")
}
