package mysql

// Decisions are replaced wholesale inside one transaction.
const upsertDecisionsPrefix = "INSERT INTO moderation_decisions\n  (review_id, is_approved, last_updated)\nVALUES "

const upsertDecisionsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  is_approved  = VALUES(is_approved),\n" +
	"  last_updated = VALUES(last_updated)\n"

const deleteAllDecisionsSQL = `DELETE FROM moderation_decisions`

const selectDecisionsSQL = `
SELECT review_id, is_approved, last_updated
FROM moderation_decisions
ORDER BY review_id
`

const deleteAllReviewsSQL = `DELETE FROM canonical_reviews`

const insertReviewsPrefix = "INSERT INTO canonical_reviews\n  (id, position, property_id, channel, payload)\nVALUES "

const selectReviewsSQL = `
SELECT payload
FROM canonical_reviews
ORDER BY position
`

const touchSyncSQL = `
INSERT INTO sync_state (name, last_sync)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE last_sync = VALUES(last_sync)
`

// MySQL caps placeholders per statement at 65535.
const rowsPerInsert = 500
