package queries

const (
	QueryInsertGroupIgnore = `
		INSERT INTO groups (group_id, member_count)
		VALUES (?, ?)
		ON CONFLICT (group_id) DO NOTHING;
	`
	QueryGetGroup   = `SELECT group_id, member_count FROM groups WHERE group_id = ?;`
	QueryListGroups = `SELECT group_id, member_count FROM groups ORDER BY group_id ASC;`
)
