package core

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/agedist/internal/config"
	"github.com/JonMunkholm/agedist/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `name.firstName,name.lastName,age,address.line1,address.city,gender
Rohit,Prasad,35,A-563 Rakshak Society,Pune,male
Priya,Shah,17,B-12 Lake View,Mumbai,female
Arjun,Mehta,62,Sector 9,Delhi,male
Meera,Iyer,41,MG Road,Bengaluru,female
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestService(t *testing.T, csvPath string) *Service {
	t.Helper()

	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	svc, err := NewService(store, config.ImportConfig{
		CSVFilePath:     csvPath,
		RequiredHeaders: []string{KeyFirstName, KeyLastName, KeyAge},
	})
	require.NoError(t, err)
	return svc
}

func TestService_Run_SingleRow(t *testing.T) {
	path := writeCSV(t, "name.firstName,name.lastName,age,address.city\nAnn,Lee,30,Paris\n")
	svc := newTestService(t, path)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, path, report.File)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, AgeDistribution{
		BucketUnder20: 0,
		Bucket20To40:  1,
		Bucket40To60:  0,
		BucketOver60:  0,
	}, report.Distribution)
}

func TestService_Run_Sample(t *testing.T) {
	svc := newTestService(t, writeCSV(t, sampleCSV))

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, AgeDistribution{
		BucketUnder20: 1,
		Bucket20To40:  1,
		Bucket40To60:  1,
		BucketOver60:  1,
	}, report.Distribution)
}

func TestService_Run_Twice(t *testing.T) {
	svc := newTestService(t, writeCSV(t, sampleCSV))

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	for _, b := range Buckets {
		assert.Equal(t, 2*first.Distribution[b], second.Distribution[b], "bucket %q", b)
	}
}

func TestService_Run_MissingFile(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "missing.csv"))

	_, err := svc.Run(context.Background())

	var fre *FileReadError
	require.ErrorAs(t, err, &fre)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	dist, err := svc.Distribution(context.Background())
	require.NoError(t, err)
	assert.Zero(t, dist.Total(), "nothing is persisted on a read failure")
}

func TestService_Run_MissingColumn(t *testing.T) {
	svc := newTestService(t, writeCSV(t, "name.firstName,age\nAnn,30\n"))

	_, err := svc.Run(context.Background())

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "VAL004", MapError(err).Code)
}

func TestService_RunFile_UnparseableAge(t *testing.T) {
	svc := newTestService(t, "")
	path := writeCSV(t, "name.firstName,name.lastName,age\nAnn,Lee,\nBob,Ray,unknown\nCy,Doe,70\n")

	report, err := svc.RunFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, int64(1), report.Distribution.Total())
	assert.Equal(t, int64(1), report.Distribution[BucketOver60])
}

func TestNewService_BadConflictPolicy(t *testing.T) {
	_, err := NewService(&memStore{}, config.ImportConfig{AddressConflict: "merge"})
	assert.Error(t, err)
}

func TestService_Ping(t *testing.T) {
	svc := newTestService(t, "")
	assert.NoError(t, svc.Ping(context.Background()))
}
