package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"insta-persona/internal/domain"
)

// Store es un cache de muestras de posts en disco, con expiración por mtime.
// Toda falla de lectura se trata como miss y toda falla de escritura se
// registra sin propagarse: el cache nunca aborta una petición.
//
// Nota: la clave rota por día calendario y además el TTL se chequea en horas.
// Ambos mecanismos se solapan; se conservan los dos a propósito porque la
// rotación diaria también vuelve idempotentes a los escritores concurrentes
// de un mismo día.
type Store struct {
	dir    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore crea el directorio de cache si no existe.
func NewStore(dir string, ttl time.Duration, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir, ttl: ttl, logger: logger}, nil
}

// Key deriva el fingerprint determinista de (subject, maxPosts, día UTC).
func Key(subject string, maxPosts int) string {
	day := time.Now().UTC().Format("20060102")
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d_%s", subject, maxPosts, day)))
	return hex.EncodeToString(sum[:])
}

// Get devuelve la muestra cacheada, o miss si no existe, expiro o no decodifica.
func (s *Store) Get(key string) ([]domain.PostRecord, bool) {
	path := s.path(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > s.ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var sample []domain.PostRecord
	if err := json.Unmarshal(data, &sample); err != nil {
		s.logger.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return sample, true
}

// Put guarda la muestra bajo la clave, sobreescribiendo. Best-effort:
// el error se devuelve solo para que el caller lo loguee.
func (s *Store) Put(key string, sample []domain.PostRecord) error {
	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}

	// Escritura atómica: archivo temporal en el mismo directorio y rename.
	// Escritores concurrentes de la misma clave producen contenido idéntico.
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
