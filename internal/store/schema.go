package store

var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER,
		city TEXT,
		preferred_channel TEXT,
		preferred_language TEXT,
		segment TEXT,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS policies (
		policy_id TEXT PRIMARY KEY,
		customer_id TEXT REFERENCES customers(customer_id),
		policy_type TEXT,
		sum_assured REAL,
		annual_premium REAL,
		premium_due_date TEXT,
		payment_mode TEXT,
		fund_value REAL,
		status TEXT DEFAULT 'ACTIVE'
	)`,
	`CREATE TABLE IF NOT EXISTS policy_state (
		policy_id TEXT PRIMARY KEY,
		current_node TEXT DEFAULT 'orchestrate',
		last_channel TEXT,
		waiting_for TEXT,
		sentiment_score REAL DEFAULT 0.0,
		distress_flag INTEGER DEFAULT 0,
		objection_count INTEGER DEFAULT 0,
		mode TEXT DEFAULT 'AI',
		updated_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		policy_id TEXT,
		channel TEXT,
		message_direction TEXT,
		content TEXT,
		sentiment_score REAL,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS escalation_cases (
		case_id INTEGER PRIMARY KEY AUTOINCREMENT,
		policy_id TEXT,
		escalation_reason TEXT,
		priority_score REAL,
		assigned_to TEXT,
		status TEXT DEFAULT 'OPEN',
		sla_deadline TEXT,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		policy_id TEXT,
		action_type TEXT,
		action_reason TEXT,
		triggered_by TEXT,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS workflow_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		policy_id TEXT,
		run_id TEXT,
		node_name TEXT,
		content TEXT,
		created_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_policy
		ON interactions(policy_id)`,
	`CREATE INDEX IF NOT EXISTS idx_policy_state_node
		ON policy_state(current_node)`,
	`CREATE INDEX IF NOT EXISTS idx_escalation_status
		ON escalation_cases(status)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_policy ON audit_logs(policy_id)`,
	`CREATE INDEX IF NOT EXISTS idx_workflow_policy
		ON workflow_logs(policy_id)`,
}
