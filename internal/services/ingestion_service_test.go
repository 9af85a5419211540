package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"epw-insights/internal/epw"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestIngestDirectory(t *testing.T) {
	Convey("Given a data directory with full, partial and broken EPW files", t, func() {
		f := newFixture(t)
		svc := NewIngestionService(f.repo, f.logger, f.metrics, "")
		ctx := context.Background()

		dir := t.TempDir()
		writeFile(t, dir, "a_full.epw", fullYear())
		writeFile(t, dir, "b_partial.epw", epwText(
			hour{1, 1, 1, 5, 80, 180, 2},
			hour{1, 1, 2, 6, 75, 190, 2},
		))
		writeFile(t, dir, "c_broken.epw", "LOCATION,too,short\n")
		writeFile(t, dir, "notes.txt", "not an epw file")

		Convey("When the directory is ingested", func() {
			result, err := svc.IngestDirectory(ctx, dir)

			Convey("Then good files load and the broken one is reported", func() {
				So(err, ShouldBeNil)
				So(result.TotalFiles, ShouldEqual, 3)
				So(result.LoadedFiles, ShouldEqual, 2)
				So(result.FailedFiles, ShouldEqual, 1)
				So(result.PartialYear, ShouldEqual, 1)
				So(result.TotalRecords, ShouldEqual, 8762)
				So(result.Errors, ShouldHaveLength, 1)
				So(result.Errors[0], ShouldContainSubstring, "c_broken.epw")

				So(result.Files, ShouldHaveLength, 3)
				So(result.Files[0].Status, ShouldEqual, StatusCreated)
				So(result.Files[1].Partial, ShouldBeTrue)
				So(result.Files[1].Warnings, ShouldHaveLength, 1)
				So(result.Files[2].Status, ShouldEqual, StatusFailed)
			})

			Convey("Then metrics reflect the outcomes", func() {
				So(testutil.ToFloat64(f.metrics.IngestionFilesTotal.WithLabelValues(StatusCreated)), ShouldEqual, 2.0)
				So(testutil.ToFloat64(f.metrics.IngestionFilesTotal.WithLabelValues(StatusFailed)), ShouldEqual, 1.0)
				So(testutil.ToFloat64(f.metrics.IngestionErrorsTotal.WithLabelValues("parse_error")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(f.metrics.PartialYearFiles), ShouldEqual, 1.0)
				So(testutil.ToFloat64(f.metrics.IngestionRecordsTotal), ShouldEqual, 8762.0)
				So(testutil.ToFloat64(f.metrics.DatasetsLoaded), ShouldEqual, 2.0)
			})

			Convey("And when it is ingested again", func() {
				again, err := svc.IngestDirectory(ctx, dir)

				Convey("Then datasets are updated in place", func() {
					So(err, ShouldBeNil)
					So(again.Files[0].Status, ShouldEqual, StatusUpdated)
					So(again.Files[0].DatasetID, ShouldEqual, result.Files[0].DatasetID)
					So(f.repo.CountDatasets(ctx), ShouldEqual, 2)
				})
			})
		})

		Convey("When the directory has no matching files", func() {
			_, err := svc.IngestDirectory(ctx, t.TempDir())

			Convey("Then ErrNoDataFiles is returned", func() {
				So(errors.Is(err, ErrNoDataFiles), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			result, err := svc.IngestDirectory(cctx, dir)

			Convey("Then the scan stops before the first file", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(result.LoadedFiles, ShouldEqual, 0)
			})
		})
	})
}

func TestIngestReader(t *testing.T) {
	Convey("Given an ingestion service", t, func() {
		f := newFixture(t)
		svc := NewIngestionService(f.repo, f.logger, f.metrics, "*.epw")
		ctx := context.Background()
		content := epwText(hour{6, 1, 1, 20, 50, 90, 4})

		Convey("When a reader is ingested", func() {
			res, err := svc.IngestReader(ctx, "upload.epw", strings.NewReader(content))

			Convey("Then the dataset ID derives from the content", func() {
				So(err, ShouldBeNil)
				So(res.DatasetID, ShouldEqual, DatasetID([]byte(content)))
				So(res.DatasetID, ShouldNotEqual, DatasetID([]byte(content+"\n")))
				So(res.Records, ShouldEqual, 1)

				stored, err := f.repo.GetDataset(ctx, res.DatasetID)
				So(err, ShouldBeNil)
				So(stored.SourceName, ShouldEqual, "upload.epw")
				So(stored.Checksum, ShouldHaveLength, 64)
				So(stored.Dataset.Location.City, ShouldEqual, "OSLO-BLINDERN")
			})
		})

		Convey("When the reader holds malformed text", func() {
			_, err := svc.IngestReader(ctx, "bad.epw", strings.NewReader("hello\n"))

			Convey("Then the parse error is wrapped", func() {
				var pe *epw.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(f.repo.CountDatasets(ctx), ShouldEqual, 0)
			})
		})
	})
}
