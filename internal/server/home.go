package server

// homePage is the install form. The generated link uses the
// stremio://host/mfp/<url>/psw/<password>/manifest.json path form, which
// Stremio resolves against this server over HTTPS.
const homePage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Flusso IPTV</title>
<style>
body { font-family: Arial, sans-serif; max-width: 650px; margin: 0 auto; padding: 20px; }
.header { text-align: center; margin-bottom: 30px; }
.form-group { margin-bottom: 20px; }
label { display: block; margin-bottom: 8px; font-weight: bold; }
input[type="text"], input[type="password"] { width: 100%; padding: 12px; font-size: 16px; border: 1px solid #ccc; border-radius: 4px; box-sizing: border-box; }
.btn { padding: 12px 20px; background: #4caf50; color: white; border: none; border-radius: 4px; cursor: pointer; font-size: 16px; }
.btn:hover { background: #45a049; }
.install-btn { background: #2196f3; }
.install-btn:hover { background: #0b7dda; }
.result { margin-top: 30px; padding: 20px; background: #f8f8f8; border-radius: 8px; display: none; }
.url { word-break: break-all; padding: 10px; background: #eee; border-radius: 4px; margin: 15px 0; }
</style>
</head>
<body>
<div class="header">
<h1>Flusso IPTV addon for Stremio</h1>
<p>Enter your MediaFlow Proxy details to build the install link.</p>
</div>
<div class="form-group">
<label for="mediaflow_url">MediaFlow Proxy URL</label>
<input type="text" id="mediaflow_url" value="{{.DefaultURL}}" placeholder="e.g. mfp.example.org">
</div>
<div class="form-group">
<label for="mediaflow_psw">MediaFlow password</label>
<input type="password" id="mediaflow_psw" value="{{.DefaultPsw}}" placeholder="Password">
</div>
<button id="generate" class="btn">Generate install link</button>
<div id="result" class="result">
<h3>Install link</h3>
<div id="link" class="url"></div>
<a id="install" href="#"><button class="btn install-btn">Install in Stremio</button></a>
</div>
<script>
document.getElementById('generate').addEventListener('click', function () {
  var mfpUrl = document.getElementById('mediaflow_url').value.trim();
  var mfpPsw = document.getElementById('mediaflow_psw').value.trim();
  if (!mfpUrl || !mfpPsw) {
    alert('Both URL and password are required');
    return;
  }
  var link = 'stremio://{{.Domain}}/mfp/' + encodeURIComponent(mfpUrl) +
    '/psw/' + encodeURIComponent(mfpPsw) + '/manifest.json';
  document.getElementById('install').href = link;
  document.getElementById('link').textContent = link;
  document.getElementById('result').style.display = 'block';
});
</script>
</body>
</html>
`
