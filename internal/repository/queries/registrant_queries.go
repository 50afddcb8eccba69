package queries

const registrantColumns = `id, enrollment, group_id, name, phone, email,
			discord_id, discord_username, discord_display_name, created_at, updated_at`

const (
	QueryGetRegistrantByEnrollment = `
		SELECT ` + registrantColumns + `
		FROM users
		WHERE enrollment = ?;
	`
	QueryExistsRegistrantByEnrollment = `SELECT 1 FROM users WHERE enrollment = ?;`
	QueryCreateRegistrant             = `
		INSERT INTO users (
			enrollment, group_id, name, phone, email,
			discord_id, discord_username, discord_display_name, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id;
	`
	QueryLinkRegistrantAccount = `
		UPDATE users
		SET email = ?, discord_id = ?, discord_username = ?, discord_display_name = ?, updated_at = ?
		WHERE enrollment = ? AND (discord_id IS NULL OR discord_id = '');
	`
	QueryDeleteRegistrantByEnrollment = `DELETE FROM users WHERE enrollment = ?;`
	QueryCountRegistrants             = `SELECT COUNT(*) FROM users;`
)
