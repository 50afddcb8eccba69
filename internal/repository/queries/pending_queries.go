package queries

const pendingColumns = `id, enrollment, name, phone, email,
			discord_id, discord_username, discord_display_name, created_at`

const (
	QueryGetPendingByID = `
		SELECT ` + pendingColumns + `
		FROM new_users
		WHERE id = ?;
	`
	QueryGetPendingByEnrollment = `
		SELECT ` + pendingColumns + `
		FROM new_users
		WHERE enrollment = ?;
	`
	QueryCreatePending = `
		INSERT INTO new_users (
			enrollment, name, phone, email,
			discord_id, discord_username, discord_display_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id;
	`
	QueryDeletePendingByID = `DELETE FROM new_users WHERE id = ?;`
	QueryListPending       = `
		SELECT ` + pendingColumns + `
		FROM new_users
		ORDER BY id ASC;
	`
	QueryCountPending = `SELECT COUNT(*) FROM new_users;`
)
