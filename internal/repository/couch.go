package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-kivik/kivik/v4"
)

const (
	docTypeNote     = "note"
	docTypeTemplate = "template"
	docTypeDocument = "document"
)

// EnsureCouchDB creates the database when it does not exist yet, along with
// the doc_type index every listing query selects on.
func EnsureCouchDB(ctx context.Context, client *kivik.Client, dbName string) (bool, error) {
	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return false, fmt.Errorf("failed to create database: %w", err)
		}
	}

	index := map[string]interface{}{"fields": []string{"doc_type"}}
	if err := client.DB(dbName).CreateIndex(ctx, "notedev", "doc-type", index); err != nil {
		return !exists, fmt.Errorf("failed to create doc_type index: %w", err)
	}
	return !exists, nil
}

func couchID(docType, id string) string {
	return fmt.Sprintf("%s:%s", docType, id)
}

func isCouchNotFound(err error) bool {
	return kivik.HTTPStatus(err) == http.StatusNotFound
}

// getCouchDoc loads docID into dest, translating a missing document into
// notFound.
func getCouchDoc(ctx context.Context, db *kivik.DB, docID string, dest interface{}, notFound error) error {
	if err := db.Get(ctx, docID).ScanDoc(dest); err != nil {
		if isCouchNotFound(err) {
			return notFound
		}
		return err
	}
	return nil
}

// deleteCouchDoc removes docID after deleting the documents matching
// children, if any.
func deleteCouchDoc(ctx context.Context, db *kivik.DB, docID string, notFound error, children map[string]interface{}) error {
	rev, err := db.GetRev(ctx, docID)
	if err != nil {
		if isCouchNotFound(err) {
			return notFound
		}
		return err
	}

	if children != nil {
		if err := deleteCouchDocs(ctx, db, children); err != nil {
			return err
		}
	}

	if _, err := db.Delete(ctx, docID, rev); err != nil {
		return err
	}
	return nil
}

// couchPageSize bounds each _find request. CouchDB applies a default limit
// of 25 rows when a query carries none.
const couchPageSize = 200

// findCouchPage runs a single Mango query, scanning every row, and returns
// the row count together with the bookmark for the next page.
func findCouchPage(ctx context.Context, db *kivik.DB, query map[string]interface{}, scan func(rows *kivik.ResultSet) error) (int, string, error) {
	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return 0, "", err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
		if err := scan(rows); err != nil {
			return count, "", err
		}
	}
	if err := rows.Err(); err != nil {
		return count, "", err
	}

	meta, err := rows.Metadata()
	if err != nil {
		return count, "", err
	}
	return count, meta.Bookmark, nil
}

// findCouchDocs scans every document matching selector, following bookmarks
// until a short page comes back.
func findCouchDocs(ctx context.Context, db *kivik.DB, selector map[string]interface{}, scan func(rows *kivik.ResultSet) error) error {
	return findCouchFields(ctx, db, selector, nil, scan)
}

func findCouchFields(ctx context.Context, db *kivik.DB, selector map[string]interface{}, fields []string, scan func(rows *kivik.ResultSet) error) error {
	var bookmark string
	for {
		query := map[string]interface{}{
			"selector": selector,
			"limit":    couchPageSize,
		}
		if len(fields) > 0 {
			query["fields"] = fields
		}
		if bookmark != "" {
			query["bookmark"] = bookmark
		}

		count, next, err := findCouchPage(ctx, db, query, scan)
		if err != nil {
			return err
		}
		if count < couchPageSize || next == "" || next == bookmark {
			return nil
		}
		bookmark = next
	}
}

type couchRevision struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev"`
}

// deleteCouchDocs removes every document matching selector in one _bulk_docs
// request.
func deleteCouchDocs(ctx context.Context, db *kivik.DB, selector map[string]interface{}) error {
	var tombstones []interface{}
	err := findCouchFields(ctx, db, selector, []string{"_id", "_rev"}, func(rows *kivik.ResultSet) error {
		var rev couchRevision
		if err := rows.ScanDoc(&rev); err != nil {
			return err
		}
		tombstones = append(tombstones, map[string]interface{}{
			"_id":      rev.ID,
			"_rev":     rev.Rev,
			"_deleted": true,
		})
		return nil
	})
	if err != nil {
		return err
	}
	if len(tombstones) == 0 {
		return nil
	}

	results, err := db.BulkDocs(ctx, tombstones)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Error != nil && !isCouchNotFound(res.Error) {
			return fmt.Errorf("failed to delete %s: %w", res.ID, res.Error)
		}
	}
	return nil
}

// ensureCouchDoc reports notFound unless docID exists.
func ensureCouchDoc(ctx context.Context, db *kivik.DB, docID string, notFound error) error {
	if _, err := db.GetRev(ctx, docID); err != nil {
		if isCouchNotFound(err) {
			return notFound
		}
		return err
	}
	return nil
}
