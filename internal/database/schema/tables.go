// Package schema holds the DDL of the segmentation database. Every statement
// is idempotent so it can run on each startup.
package schema

// TableDefinitions creates the tables in dependency order
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id VARCHAR(64) NOT NULL,
		organization_id VARCHAR(64) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(50),
		first_name VARCHAR(255),
		last_name VARCHAR(255),
		total_spent DECIMAL NOT NULL DEFAULT 0,
		order_count INTEGER NOT NULL DEFAULT 0,
		last_order_at TIMESTAMPTZ,
		loyalty_member BOOLEAN NOT NULL DEFAULT FALSE,
		loyalty_points INTEGER NOT NULL DEFAULT 0,
		loyalty_tier VARCHAR(50),
		rfm_recency_days INTEGER,
		rfm_frequency_score INTEGER,
		rfm_monetary_score INTEGER,
		rfm_score VARCHAR(3),
		engagement_score INTEGER,
		predicted_ltv DECIMAL,
		churn_risk VARCHAR(10),
		segment_tags TEXT[] NOT NULL DEFAULT '{}',
		segmentation_updated_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (organization_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS customer_activities (
		id UUID PRIMARY KEY,
		organization_id VARCHAR(64) NOT NULL,
		customer_id VARCHAR(64) NOT NULL,
		type VARCHAR(32) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		FOREIGN KEY (organization_id, customer_id) REFERENCES customers (organization_id, id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS segments (
		id UUID PRIMARY KEY,
		organization_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		segment_type VARCHAR(64) NOT NULL,
		is_ai_powered BOOLEAN NOT NULL DEFAULT FALSE,
		auto_update BOOLEAN NOT NULL DEFAULT FALSE,
		customer_count INTEGER NOT NULL DEFAULT 0,
		avg_lifetime_value DECIMAL NOT NULL DEFAULT 0,
		avg_engagement DECIMAL NOT NULL DEFAULT 0,
		last_calculated_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS segment_customers (
		segment_id UUID NOT NULL REFERENCES segments (id) ON DELETE CASCADE,
		customer_id VARCHAR(64) NOT NULL,
		added_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (segment_id, customer_id)
	)`,
}

// IndexDefinitions are created after the tables
var IndexDefinitions = []string{
	`CREATE INDEX IF NOT EXISTS idx_customers_churn_risk ON customers (organization_id, churn_risk)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_segment_tags ON customers USING GIN (segment_tags)`,
	`CREATE INDEX IF NOT EXISTS idx_customer_activities_recent ON customer_activities (organization_id, customer_id, created_at DESC)`,
	// one AI segment per type and organization; the assignment upsert targets it
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_segments_ai_type ON segments (organization_id, segment_type) WHERE is_ai_powered`,
	`CREATE INDEX IF NOT EXISTS idx_segment_customers_customer ON segment_customers (customer_id)`,
}

// Statements returns every DDL statement in execution order
func Statements() []string {
	statements := make([]string, 0, len(TableDefinitions)+len(IndexDefinitions))
	statements = append(statements, TableDefinitions...)
	return append(statements, IndexDefinitions...)
}
