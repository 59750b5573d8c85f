package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	bq "github.com/dvloznov/budgetwise/internal/bigquery"
	"github.com/dvloznov/budgetwise/internal/categorize"
	"github.com/dvloznov/budgetwise/internal/extract"
	"github.com/dvloznov/budgetwise/internal/parse"
)

type fakeFileStore struct {
	processingCalls []string
	completedCalls  []struct {
		fileID            string
		saved, duplicates int
	}
	failedCalls []struct {
		fileID string
		err    error
	}
	processingErr error
}

func (f *fakeFileStore) MarkFileProcessing(ctx context.Context, fileID string) error {
	f.processingCalls = append(f.processingCalls, fileID)
	return f.processingErr
}

func (f *fakeFileStore) MarkFileCompleted(ctx context.Context, fileID string, saved, duplicates int) error {
	f.completedCalls = append(f.completedCalls, struct {
		fileID            string
		saved, duplicates int
	}{fileID, saved, duplicates})
	return nil
}

func (f *fakeFileStore) MarkFileFailed(ctx context.Context, fileID string, procErr error) {
	f.failedCalls = append(f.failedCalls, struct {
		fileID string
		err    error
	}{fileID, procErr})
}

type existsKey struct {
	date        civil.Date
	description string
	amount      float64
}

type fakeTransactionStore struct {
	existing  map[existsKey]bool
	inserted  []*bq.TransactionRow
	insertErr error
	existsErr error
}

func (f *fakeTransactionStore) InsertTransaction(ctx context.Context, row *bq.TransactionRow) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, row)
	return nil
}

func (f *fakeTransactionStore) TransactionExists(ctx context.Context, userID string, date civil.Date, description string, amount float64) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existing[existsKey{date, description, amount}], nil
}

type fakeStorage struct {
	data []byte
	err  error
	uris []string
}

func (f *fakeStorage) UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	return "gs://bucket/" + objectName, nil
}

func (f *fakeStorage) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	f.uris = append(f.uris, gcsURI)
	return f.data, f.err
}

func (f *fakeStorage) ExtractFilename(uri string) string { return uri }

type fallbackCategorizer struct{}

func (fallbackCategorizer) CategorizeAll(ctx context.Context, txs []parse.Transaction) []categorize.Categorized {
	out := make([]categorize.Categorized, len(txs))
	for i, tx := range txs {
		out[i] = categorize.Fallback(tx)
	}
	return out
}

const sampleCSV = "Date,Description,Amount\n" +
	"2024-01-15,STARBUCKS STORE,-5.75\n" +
	"2024-01-16,PAYROLL ACME,2500.00\n"

func newTestProcessor(files *fakeFileStore, txs *fakeTransactionStore, storage *fakeStorage) *Processor {
	return NewProcessor(files, txs, storage, fallbackCategorizer{}, zerolog.Nop())
}

func testRequest() Request {
	return Request{
		UserID:   "user-1",
		FileID:   "file-1",
		GCSURI:   "gs://bucket/uploads/file-1.csv",
		MIMEType: "text/csv",
		Filename: "statement.csv",
	}
}

func TestProcessFile_Success(t *testing.T) {
	files := &fakeFileStore{}
	txs := &fakeTransactionStore{}
	storage := &fakeStorage{data: []byte(sampleCSV)}
	p := newTestProcessor(files, txs, storage)

	result, err := p.ProcessFile(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if result.SavedCount != 2 || result.DuplicateCount != 0 {
		t.Errorf("Unexpected result: %+v", result)
	}

	if len(files.processingCalls) != 1 || files.processingCalls[0] != "file-1" {
		t.Errorf("Expected one processing transition, got %v", files.processingCalls)
	}
	if len(files.completedCalls) != 1 || files.completedCalls[0].saved != 2 {
		t.Errorf("Expected completed with 2 saved, got %+v", files.completedCalls)
	}
	if len(files.failedCalls) != 0 {
		t.Errorf("Unexpected failure transitions: %+v", files.failedCalls)
	}

	if len(txs.inserted) != 2 {
		t.Fatalf("Expected 2 inserts, got %d", len(txs.inserted))
	}
	row := txs.inserted[0]
	if row.UserID != "user-1" || !row.FileID.Valid || row.FileID.StringVal != "file-1" {
		t.Errorf("Unexpected row identity: %+v", row)
	}
	if row.CategoryName == "" || row.TransactionID == "" {
		t.Errorf("Expected category and ID assigned: %+v", row)
	}
	if txs.inserted[1].IsIncome != true {
		t.Errorf("Expected second row to be income: %+v", txs.inserted[1])
	}
}

func TestProcessFile_DuplicatesSkipped(t *testing.T) {
	files := &fakeFileStore{}
	txs := &fakeTransactionStore{
		existing: map[existsKey]bool{
			{civil.Date{Year: 2024, Month: 1, Day: 15}, "STARBUCKS STORE", 5.75}: true,
			{civil.Date{Year: 2024, Month: 1, Day: 16}, "PAYROLL ACME", 2500}:    true,
		},
	}
	storage := &fakeStorage{data: []byte(sampleCSV)}
	p := newTestProcessor(files, txs, storage)

	result, err := p.ProcessFile(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if result.SavedCount != 0 || result.DuplicateCount != 2 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(txs.inserted) != 0 {
		t.Errorf("Expected no inserts, got %d", len(txs.inserted))
	}
	if len(files.completedCalls) != 1 || files.completedCalls[0].duplicates != 2 {
		t.Errorf("Expected completed with 2 duplicates, got %+v", files.completedCalls)
	}
}

func TestProcessFile_TruncatesBeforeDuplicateCheck(t *testing.T) {
	longDesc := strings.Repeat("A", 600)
	truncated := longDesc[:maxDescriptionLen-len(truncationMarker)] + truncationMarker

	files := &fakeFileStore{}
	txs := &fakeTransactionStore{
		existing: map[existsKey]bool{
			{civil.Date{Year: 2024, Month: 1, Day: 15}, truncated, 9.99}: true,
		},
	}
	csvData := "Date,Description,Amount\n2024-01-15," + longDesc + ",-9.99\n"
	storage := &fakeStorage{data: []byte(csvData)}
	p := newTestProcessor(files, txs, storage)

	result, err := p.ProcessFile(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if result.DuplicateCount != 1 || result.SavedCount != 0 {
		t.Errorf("Expected truncated description to match existing row: %+v", result)
	}
}

func TestProcessFile_TruncatesStoredDescription(t *testing.T) {
	longDesc := strings.Repeat("B", 700)

	files := &fakeFileStore{}
	txs := &fakeTransactionStore{}
	csvData := "Date,Description,Amount\n2024-01-15," + longDesc + ",-9.99\n"
	storage := &fakeStorage{data: []byte(csvData)}
	p := newTestProcessor(files, txs, storage)

	if _, err := p.ProcessFile(context.Background(), testRequest()); err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(txs.inserted) != 1 {
		t.Fatalf("Expected 1 insert, got %d", len(txs.inserted))
	}
	desc := txs.inserted[0].Description
	if len(desc) != maxDescriptionLen || !strings.HasSuffix(desc, truncationMarker) {
		t.Errorf("Expected %d-char description ending in marker, got %d chars", maxDescriptionLen, len(desc))
	}
}

func TestProcessFile_UnsupportedFormatRejectedBeforeProcessing(t *testing.T) {
	files := &fakeFileStore{}
	txs := &fakeTransactionStore{}
	storage := &fakeStorage{}
	p := newTestProcessor(files, txs, storage)

	req := testRequest()
	req.MIMEType = "image/png"
	req.Filename = "photo.png"

	_, err := p.ProcessFile(context.Background(), req)
	if !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if len(files.processingCalls) != 0 {
		t.Errorf("File must not enter processing state on rejection")
	}
	if len(files.failedCalls) != 0 {
		t.Errorf("File must keep pending status on rejection, got %+v", files.failedCalls)
	}
}

func TestProcessFile_EmptyFileMarksFailed(t *testing.T) {
	files := &fakeFileStore{}
	txs := &fakeTransactionStore{}
	storage := &fakeStorage{data: []byte("Date,Description,Amount\n")}
	p := newTestProcessor(files, txs, storage)

	_, err := p.ProcessFile(context.Background(), testRequest())
	if !errors.Is(err, ErrNoTransactions) {
		t.Fatalf("Expected ErrNoTransactions, got %v", err)
	}
	if len(files.failedCalls) != 1 || files.failedCalls[0].fileID != "file-1" {
		t.Errorf("Expected file marked failed, got %+v", files.failedCalls)
	}
	if len(files.completedCalls) != 0 {
		t.Errorf("Unexpected completion: %+v", files.completedCalls)
	}
}

func TestProcessFile_FetchErrorMarksFailed(t *testing.T) {
	files := &fakeFileStore{}
	txs := &fakeTransactionStore{}
	storage := &fakeStorage{err: errors.New("object not found")}
	p := newTestProcessor(files, txs, storage)

	if _, err := p.ProcessFile(context.Background(), testRequest()); err == nil {
		t.Fatal("Expected error")
	}
	if len(files.failedCalls) != 1 {
		t.Errorf("Expected file marked failed, got %+v", files.failedCalls)
	}
}

func TestProcessFile_InsertErrorAborts(t *testing.T) {
	files := &fakeFileStore{}
	txs := &fakeTransactionStore{insertErr: errors.New("quota exceeded")}
	storage := &fakeStorage{data: []byte(sampleCSV)}
	p := newTestProcessor(files, txs, storage)

	if _, err := p.ProcessFile(context.Background(), testRequest()); err == nil {
		t.Fatal("Expected error")
	}
	if len(files.failedCalls) != 1 {
		t.Errorf("Expected file marked failed, got %+v", files.failedCalls)
	}
	if len(files.completedCalls) != 0 {
		t.Errorf("Unexpected completion: %+v", files.completedCalls)
	}
}

func TestTruncateDescription(t *testing.T) {
	short := "COFFEE SHOP"
	if got := truncateDescription(short); got != short {
		t.Errorf("Short description modified: %q", got)
	}

	long := strings.Repeat("x", maxDescriptionLen+1)
	got := truncateDescription(long)
	if len(got) != maxDescriptionLen {
		t.Errorf("Expected length %d, got %d", maxDescriptionLen, len(got))
	}
	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("Expected truncation marker suffix, got %q", got[len(got)-10:])
	}
}

func TestTruncateDescription_CountsRunesNotBytes(t *testing.T) {
	// 300 runes but 600 bytes; under the rune limit, must pass untouched.
	under := strings.Repeat("é", 300)
	if got := truncateDescription(under); got != under {
		t.Errorf("Description under the rune limit modified: %d runes", utf8.RuneCountInString(got))
	}

	over := strings.Repeat("é", maxDescriptionLen+1)
	got := truncateDescription(over)
	if n := utf8.RuneCountInString(got); n != maxDescriptionLen {
		t.Errorf("Expected %d runes, got %d", maxDescriptionLen, n)
	}
	if !utf8.ValidString(got) {
		t.Error("Truncation produced invalid UTF-8")
	}
	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("Expected truncation marker suffix, got %q", got[len(got)-10:])
	}
}
