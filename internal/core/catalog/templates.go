package catalog

import "time"

// =============================================================================
// Default Catalog
// =============================================================================

func defaultTemplates() []Template {
	return []Template{
		{
			Type:        "minio",
			Name:        "MinIO S3 Storage",
			Description: "S3-compatible object storage",
			Category:    "storage",
			Image:       "minio/minio:latest",
			Ports: []Port{
				{Name: "api", Number: 9000},
				{Name: "console", Number: 9001},
			},
			Command: "server /data --console-address :9001",
			GenerateEnv: func() map[string]string {
				return map[string]string{
					"MINIO_ROOT_USER":     "minioadmin",
					"MINIO_ROOT_PASSWORD": GenerateSecret(16),
				}
			},
			Volumes: []VolumeSpec{
				{Name: "data", MountPath: "/data"},
			},
			HealthCheck: &HealthProbe{
				Test:     []string{"CMD", "curl", "-f", "http://localhost:9000/minio/health/live"},
				Interval: 30 * time.Second,
				Timeout:  10 * time.Second,
				Retries:  3,
			},
		},
		{
			Type:        "postgres",
			Name:        "PostgreSQL Database",
			Description: "Relational database",
			Category:    "database",
			Image:       "postgres:16-alpine",
			Ports: []Port{
				{Name: "db", Number: 5432},
			},
			GenerateEnv: func() map[string]string {
				return map[string]string{
					"POSTGRES_USER":     "postgres",
					"POSTGRES_PASSWORD": GenerateSecret(16),
					"POSTGRES_DB":       "app",
					"PGDATA":            "/var/lib/postgresql/data/pgdata",
				}
			},
			Volumes: []VolumeSpec{
				{Name: "data", MountPath: "/var/lib/postgresql/data"},
			},
			HealthCheck: &HealthProbe{
				Test:     []string{"CMD-SHELL", "pg_isready -U postgres"},
				Interval: 10 * time.Second,
				Timeout:  5 * time.Second,
				Retries:  5,
			},
		},
		{
			Type:        "mysql",
			Name:        "MySQL Database",
			Description: "Relational database",
			Category:    "database",
			Image:       "mysql:8.0",
			Ports: []Port{
				{Name: "db", Number: 3306},
			},
			GenerateEnv: func() map[string]string {
				return map[string]string{
					"MYSQL_ROOT_PASSWORD": GenerateSecret(16),
					"MYSQL_DATABASE":      "app",
					"MYSQL_USER":          "app",
					"MYSQL_PASSWORD":      GenerateSecret(16),
				}
			},
			Volumes: []VolumeSpec{
				{Name: "data", MountPath: "/var/lib/mysql"},
			},
			HealthCheck: &HealthProbe{
				Test:     []string{"CMD", "mysqladmin", "ping", "-h", "localhost"},
				Interval: 10 * time.Second,
				Timeout:  5 * time.Second,
				Retries:  5,
			},
		},
		{
			Type:        "mongodb",
			Name:        "MongoDB Database",
			Description: "NoSQL document database",
			Category:    "database",
			Image:       "mongo:7",
			Ports: []Port{
				{Name: "db", Number: 27017},
			},
			GenerateEnv: func() map[string]string {
				return map[string]string{
					"MONGO_INITDB_ROOT_USERNAME": "admin",
					"MONGO_INITDB_ROOT_PASSWORD": GenerateSecret(16),
					"MONGO_INITDB_DATABASE":      "app",
				}
			},
			Volumes: []VolumeSpec{
				{Name: "data", MountPath: "/data/db"},
				{Name: "config", MountPath: "/data/configdb"},
			},
			HealthCheck: &HealthProbe{
				Test:     []string{"CMD", "mongosh", "--eval", "db.adminCommand('ping')"},
				Interval: 10 * time.Second,
				Timeout:  5 * time.Second,
				Retries:  5,
			},
		},
		{
			Type:        "redis",
			Name:        "Redis Cache",
			Description: "In-memory cache and message broker",
			Category:    "cache",
			Image:       "redis:7-alpine",
			Ports: []Port{
				{Name: "cache", Number: 6379},
			},
			Command: "redis-server --requirepass {password}",
			GenerateEnv: func() map[string]string {
				return map[string]string{
					"REDIS_PASSWORD": GenerateSecret(16),
				}
			},
			Volumes: []VolumeSpec{
				{Name: "data", MountPath: "/data"},
			},
			HealthCheck: &HealthProbe{
				Test:     []string{"CMD", "redis-cli", "ping"},
				Interval: 10 * time.Second,
				Timeout:  5 * time.Second,
				Retries:  3,
			},
		},
		{
			Type:        "rabbitmq",
			Name:        "RabbitMQ Message Queue",
			Description: "Message broker",
			Category:    "queue",
			Image:       "rabbitmq:3-management-alpine",
			Ports: []Port{
				{Name: "amqp", Number: 5672},
				{Name: "management", Number: 15672},
			},
			GenerateEnv: func() map[string]string {
				return map[string]string{
					"RABBITMQ_DEFAULT_USER":     "admin",
					"RABBITMQ_DEFAULT_PASSWORD": GenerateSecret(16),
				}
			},
			Volumes: []VolumeSpec{
				{Name: "data", MountPath: "/var/lib/rabbitmq"},
			},
			HealthCheck: &HealthProbe{
				Test:     []string{"CMD", "rabbitmq-diagnostics", "ping"},
				Interval: 30 * time.Second,
				Timeout:  10 * time.Second,
				Retries:  3,
			},
		},
		{
			Type:        "elasticsearch",
			Name:        "Elasticsearch Search Engine",
			Description: "Full-text search and analytics",
			Category:    "search",
			Image:       "elasticsearch:8.11.0",
			Ports: []Port{
				{Name: "http", Number: 9200},
				{Name: "transport", Number: 9300},
			},
			GenerateEnv: func() map[string]string {
				return map[string]string{
					"discovery.type":         "single-node",
					"ELASTIC_PASSWORD":       GenerateSecret(16),
					"xpack.security.enabled": "true",
				}
			},
			Volumes: []VolumeSpec{
				{Name: "data", MountPath: "/usr/share/elasticsearch/data"},
			},
			HealthCheck: &HealthProbe{
				Test:     []string{"CMD-SHELL", "curl -f http://localhost:9200/_cluster/health || exit 1"},
				Interval: 30 * time.Second,
				Timeout:  10 * time.Second,
				Retries:  3,
			},
		},
	}
}
