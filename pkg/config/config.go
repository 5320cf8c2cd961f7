// Package config는 서비스 설정 파일을 viper로 읽어 yaml 태그 기준으로 구조체에 채웁니다.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// 설정 디렉토리 경로
const configDir = "configs"

// Load는 {CONFIG_PATH 또는 configs/{APP_ENV}}/{serviceName}.yaml 을 읽어 out에 디코딩합니다.
// 둘 다 없으면 configs/example 을 사용합니다.
//
// out에 미리 채워진 값은 viper 기본값으로 등록되어, 파일에 없는 키도
// {SERVICENAME}_{KEY} 환경 변수로 덮어쓸 수 있습니다 (예: CREDITS_SERVICE_STRIPE_SECRET_KEY).
// 반환값은 실제로 읽은 설정 파일 경로입니다.
func Load(serviceName string, out interface{}) (string, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(serviceName)

	// 환경 변수 바인딩 (. -> _)
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := registerDefaults(v, out); err != nil {
		return "", err
	}

	for _, dir := range searchPaths() {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("설정 파일 로드 실패: %w", err)
	}

	if err := v.Unmarshal(out, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return "", fmt.Errorf("설정 디코딩 실패: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// searchPaths는 설정 파일 탐색 순서를 반환합니다
func searchPaths() []string {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return []string{configPath, filepath.Join(configDir, "example")}
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{filepath.Join(configDir, env), filepath.Join(configDir, "example")}
}

// registerDefaults는 구조체를 yaml로 펼쳐 각 leaf 키를 viper 기본값으로 등록합니다.
// viper는 알고 있는 키에 대해서만 환경 변수를 조회하므로 이 단계가 필요합니다.
func registerDefaults(v *viper.Viper, defaults interface{}) error {
	raw, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("기본 설정 직렬화 실패: %w", err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("기본 설정 파싱 실패: %w", err)
	}

	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, node map[string]interface{}) {
	for key, value := range node {
		if prefix != "" {
			key = prefix + "." + key
		}
		if child, ok := value.(map[string]interface{}); ok {
			setDefaults(v, key, child)
			continue
		}
		v.SetDefault(key, value)
	}
}
