package catalog

import "fmt"

// =============================================================================
// Connection Info
// =============================================================================

// ConnectionInfo builds the typed connection payload for a deployed service.
// The credentials shape is keyed by service type; unknown keys fall back to
// exposing only the internal URL.
func ConnectionInfo(t Template, containerName string, env map[string]string) map[string]any {
	ports := make(map[string]int, len(t.Ports))
	for _, p := range t.Ports {
		ports[p.Name] = p.Number
	}

	info := map[string]any{
		"internal_url":   fmt.Sprintf("http://%s:%d", containerName, t.PrimaryPort()),
		"container_name": containerName,
		"ports":          ports,
		"credentials":    credentials(t.Type, containerName, env),
	}
	return info
}

func credentials(serviceType, containerName string, env map[string]string) map[string]any {
	switch serviceType {
	case "postgres":
		return map[string]any{
			"username": env["POSTGRES_USER"],
			"password": env["POSTGRES_PASSWORD"],
			"database": env["POSTGRES_DB"],
			"connection_string": fmt.Sprintf("postgresql://%s:%s@%s:5432/%s",
				env["POSTGRES_USER"], env["POSTGRES_PASSWORD"], containerName, env["POSTGRES_DB"]),
		}
	case "mysql":
		return map[string]any{
			"username":      env["MYSQL_USER"],
			"password":      env["MYSQL_PASSWORD"],
			"root_password": env["MYSQL_ROOT_PASSWORD"],
			"database":      env["MYSQL_DATABASE"],
			"connection_string": fmt.Sprintf("mysql://%s:%s@%s:3306/%s",
				env["MYSQL_USER"], env["MYSQL_PASSWORD"], containerName, env["MYSQL_DATABASE"]),
		}
	case "mongodb":
		return map[string]any{
			"username": env["MONGO_INITDB_ROOT_USERNAME"],
			"password": env["MONGO_INITDB_ROOT_PASSWORD"],
			"database": env["MONGO_INITDB_DATABASE"],
			"connection_string": fmt.Sprintf("mongodb://%s:%s@%s:27017/%s?authSource=admin",
				env["MONGO_INITDB_ROOT_USERNAME"], env["MONGO_INITDB_ROOT_PASSWORD"],
				containerName, env["MONGO_INITDB_DATABASE"]),
		}
	case "redis":
		return map[string]any{
			"password": env["REDIS_PASSWORD"],
			"connection_string": fmt.Sprintf("redis://:%s@%s:6379",
				env["REDIS_PASSWORD"], containerName),
		}
	case "minio":
		return map[string]any{
			"access_key": env["MINIO_ROOT_USER"],
			"secret_key": env["MINIO_ROOT_PASSWORD"],
			"endpoint":   fmt.Sprintf("http://%s:9000", containerName),
			"console_url": fmt.Sprintf("http://%s:9001", containerName),
		}
	default:
		return map[string]any{}
	}
}
