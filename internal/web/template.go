package web

import "html/template"

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Opsgenie App Setup</title>
<style>
body { font-family: sans-serif; max-width: 40em; margin: 2em auto; }
label { display: block; margin-top: 1em; font-weight: bold; }
input[type=text], select { width: 100%; padding: .4em; }
.errors li { color: #b00020; }
.success { color: #1b5e20; }
</style>
</head>
<body>
<h1>Opsgenie App Setup</h1>
<p>Enter the API key of your Opsgenie Splunk integration and the region of your Opsgenie account.</p>
{{if .Success}}<p class="success">{{index .Messages 0}}</p>{{end}}
{{if and .Messages (not .Success)}}
<ul class="errors">
{{range .Messages}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
<form method="post" action="/setup">
<label for="api_key">API Key</label>
<input type="text" id="api_key" name="api_key" autocomplete="off" placeholder="xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx">
<label for="region">Region</label>
<select id="region" name="region">
{{range .Regions}}<option value="{{.}}"{{if eq . $.Region}} selected{{end}}>{{.}}</option>
{{end}}</select>
<p><button type="submit">Complete Setup</button></p>
</form>
</body>
</html>
`))

type formView struct {
	Regions  []string
	Region   string
	Messages []string
	Success  bool
}
