package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				trigger_event VARCHAR(64) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT true,
				steps JSONB NOT NULL DEFAULT '[]',
				times_triggered BIGINT NOT NULL DEFAULT 0,
				last_triggered_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_tenant_trigger ON workflows(tenant_id, trigger_event);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);
		`,
		2: `
			CREATE TABLE workflow_runs (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				tenant_id VARCHAR(255) NOT NULL,
				success BOOLEAN NOT NULL,
				executed_steps JSONB NOT NULL DEFAULT '[]',
				errors JSONB NOT NULL DEFAULT '[]',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_runs_workflow_started ON workflow_runs(workflow_id, started_at DESC);
		`,
		3: `
			CREATE TABLE tasks (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				workflow_id VARCHAR(255),
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				priority VARCHAR(32) NOT NULL,
				assignee_id VARCHAR(255),
				entity_id VARCHAR(255),
				due_date TIMESTAMP WITH TIME ZONE,
				automated BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_tasks_tenant ON tasks(tenant_id, created_at);

			CREATE TABLE entity_statuses (
				tenant_id VARCHAR(255) NOT NULL,
				entity_type VARCHAR(64) NOT NULL,
				entity_id VARCHAR(255) NOT NULL,
				status VARCHAR(64) NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (tenant_id, entity_type, entity_id)
			);

			CREATE TABLE assignments (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				entity_type VARCHAR(64) NOT NULL,
				entity_id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				role VARCHAR(64),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_assignments_entity ON assignments(tenant_id, entity_type, entity_id);

			CREATE TABLE documents (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				workflow_id VARCHAR(255),
				name TEXT NOT NULL,
				template TEXT,
				entity_id VARCHAR(255),
				data JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_documents_tenant ON documents(tenant_id, created_at);
		`,
	}
}
