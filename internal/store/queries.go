package store

// SQL query constants organized by backend.
// All SQL lives here; the SQL stores reference these constants.

// Postgres document queries.
const (
	pgWriteDocument = `
		INSERT INTO documents (collection, doc_key, body, updated_at)
		VALUES (@collection, @doc_key, @body, now())
		ON CONFLICT (collection, doc_key) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = now()`

	// Top-level keys with a JSON null in the patch are removed.
	pgUpdateDocument = `
		UPDATE documents SET
			body = jsonb_strip_nulls(body || $3::jsonb),
			updated_at = now()
		WHERE collection = $1 AND doc_key = $2`

	pgRemoveDocument = `
		DELETE FROM documents
		WHERE collection = $1 AND doc_key = $2`

	pgListCollection = `
		SELECT doc_key, body
		FROM documents
		WHERE collection = $1
		ORDER BY doc_key`
)

// SQLite document queries.
const (
	sqliteWriteDocument = `
		INSERT INTO documents (collection, doc_key, body, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, doc_key) DO UPDATE SET
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP`

	// json_patch follows RFC 7396: null members are removed.
	sqliteUpdateDocument = `
		UPDATE documents SET
			body = json_patch(body, ?),
			updated_at = CURRENT_TIMESTAMP
		WHERE collection = ? AND doc_key = ?`

	sqliteRemoveDocument = `
		DELETE FROM documents
		WHERE collection = ? AND doc_key = ?`

	sqliteListCollection = `
		SELECT doc_key, body
		FROM documents
		WHERE collection = ?
		ORDER BY doc_key`
)
