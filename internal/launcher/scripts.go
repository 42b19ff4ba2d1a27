package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

// Script templates rendered into each managed server's EZHost folder at
// creation time. The start script keeps the Java process attached so its
// stdout can be scanned for the readiness marker.

const startScriptSh = `#!/bin/sh
# Generated by EZHost. Do not edit; changes are overwritten on re-create.
cd "{{.ServerDir}}" || exit 1
exec java @variables.txt -jar server.jar nogui
`

const initScriptSh = `#!/bin/sh
# Generated by EZHost. First-time setup: accept the EULA and seed the
# variables file if the installer has not produced one.
cd "{{.ServerDir}}" || exit 1
echo "eula=true" > eula.txt
if [ ! -f variables.txt ]; then
    printf -- "-Xms2G -Xmx{{.RAMGB}}G\n" > variables.txt
fi
for installer in *installer*.jar; do
    [ -f "$installer" ] && java -jar "$installer" --installServer && break
done
exit 0
`

const startScriptPs1 = `# Generated by EZHost. Do not edit; changes are overwritten on re-create.
Set-Location -Path "{{.ServerDir}}"
java "@variables.txt" -jar server.jar nogui
`

const initScriptPs1 = `# Generated by EZHost. First-time setup.
Set-Location -Path "{{.ServerDir}}"
Set-Content -Path eula.txt -Value "eula=true"
if (-not (Test-Path variables.txt)) {
    Set-Content -Path variables.txt -Value "-Xms2G -Xmx{{.RAMGB}}G"
}
Get-ChildItem -Filter "*installer*.jar" | Select-Object -First 1 | ForEach-Object {
    java -jar $_.FullName --installServer
}
`

var (
	startTmplSh  = template.Must(template.New("start.sh").Parse(startScriptSh))
	initTmplSh   = template.Must(template.New("init.sh").Parse(initScriptSh))
	startTmplPs1 = template.Must(template.New("start.ps1").Parse(startScriptPs1))
	initTmplPs1  = template.Must(template.New("init.ps1").Parse(initScriptPs1))
)

type scriptData struct {
	ServerDir string
	RAMGB     int
}

// WriteScripts renders the init and start scripts for the current
// platform into dir's EZHost folder, making them executable.
func WriteScripts(dir string, ramGB int) error {
	scriptsDir := filepath.Join(dir, ScriptsDir)
	if err := os.MkdirAll(scriptsDir, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}

	data := scriptData{ServerDir: dir, RAMGB: ramGB}

	initTmpl, startTmpl := initTmplSh, startTmplSh
	if runtime.GOOS == "windows" {
		initTmpl, startTmpl = initTmplPs1, startTmplPs1
	}

	if err := renderScript(ScriptPath(dir, KindInit), initTmpl, data); err != nil {
		return err
	}
	return renderScript(ScriptPath(dir, KindStart), startTmpl, data)
}

// RemoveScripts deletes the generated EZHost folder. The Minecraft
// installation itself is left untouched.
func RemoveScripts(dir string) error {
	return os.RemoveAll(filepath.Join(dir, ScriptsDir))
}

func renderScript(path string, tmpl *template.Template, data scriptData) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("failed to create script %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render script %s: %w", path, err)
	}
	return nil
}
