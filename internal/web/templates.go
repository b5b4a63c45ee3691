package web

// baseTemplates holds the layout halves and partials shared by every page.
// Pages are parsed into clones of this set and execute "page".
const baseTemplates = `
{{define "open"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .Title}}{{.Title}} | {{end}}PluralKit</title>
<link rel="stylesheet" href="{{.BasePath}}/static/style.css">
{{block "head" .}}{{end}}
</head>
<body>
<main>
{{end}}

{{define "close"}}
</main>
<footer>
<a href="https://github.com/xSke/PluralKit">GitHub</a>
<span>&middot;</span>
<a href="https://discord.gg/PczBt78">Support server</a>
</footer>
</body>
</html>
{{end}}

{{define "avatar"}}<img class="avatar" src="{{avatarURL .}}" alt="" loading="lazy">{{end}}

{{define "loading"}}<div class="loading" role="status" aria-live="polite"><span class="spinner"></span><span>Loading...</span></div>{{end}}

{{define "member"}}
<article class="member"{{with colorHex .Color}} style="border-color: {{cssColor .}}"{{end}}>
  {{template "avatar" .AvatarURL}}
  <div class="member-body">
    <h3 class="member-name">{{.Name}}</h3>
    {{with .Pronouns}}<p class="member-pronouns">{{.}}</p>{{end}}
    {{with birthday .Birthday}}<p class="member-birthday">Birthday: {{.}}</p>{{end}}
    {{with colorHex .Color}}<p class="member-color"><span class="swatch" style="background: {{cssColor .}}"></span>{{.}}</p>{{end}}
    {{with .Description}}<div class="member-description">{{markdown .}}</div>{{end}}
  </div>
</article>
{{end}}

{{define "system"}}
{{if eq .State "loading"}}
{{template "loading"}}
{{else if eq .State "failed"}}
<section class="failed">
  <h2>Couldn't load this system</h2>
  <p class="error">{{.Error}}</p>
  <a href="{{.BasePath}}/system/{{.ID}}">Try again</a>
</section>
{{else}}
<header class="system">
  {{template "avatar" .System.AvatarURL}}
  <div>
    <h1 class="system-name">{{systemName .System}}</h1>
    {{with .System.Tag}}<p class="system-tag">{{.}}</p>{{end}}
  </div>
</header>
{{with .System.Description}}<div class="system-description">{{markdown .}}</div>{{end}}
<section class="members">
{{range .Members}}{{template "member" .}}{{end}}
</section>
{{end}}
{{end}}

{{define "loginfailed"}}
<section class="failed">
  <h2>Login failed</h2>
  {{with .Error}}<p class="error">{{.}}</p>{{end}}
  {{if .LoginURL}}<a class="button" href="{{.LoginURL}}">Try again</a>{{end}}
  <a href="/">Back home</a>
</section>
{{end}}
`

const homeTemplate = `
{{define "page"}}{{template "open" .}}
<section class="home">
  <img class="bot-avatar" src="` + botAvatarURL + `" alt="PluralKit">
  <h1>PluralKit</h1>
  <p>A bot for plural communities on Discord.</p>
  <p><a class="button" href="` + inviteURL + `">Add the bot to your server</a></p>
  {{if .LoggedIn}}
    <p class="logged-in">You are logged in.</p>
    <p><a class="button" href="/me">View your system</a></p>
    <form method="post" action="/logout">{{.CSRF}}<button type="submit">Log out</button></form>
  {{else}}
    {{if .LoginURL}}<p><a class="button" href="{{.LoginURL}}">Login with Discord</a></p>{{end}}
    <form class="token-form" method="post" action="/token">
      {{.CSRF}}
      <label for="token">Enter PK token</label>
      <input id="token" name="token" type="password" autocomplete="off" required>
      <button type="submit">Save token</button>
    </form>
    {{with .Error}}<p class="error">{{.}}</p>{{end}}
  {{end}}
</section>
{{template "close" .}}{{end}}
`

const systemShellTemplate = `
{{define "page"}}{{template "open" .}}
<div id="system" data-id="{{.System.ID}}">{{template "loading"}}</div>
<noscript><a href="?static=1">View without JavaScript</a></noscript>
<script>
(function () {
  var el = document.getElementById("system");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws/system/" + encodeURIComponent(el.dataset.id));
  ws.onmessage = function (e) {
    var frame = JSON.parse(e.data);
    el.innerHTML = frame.html;
  };
})();
</script>
{{template "close" .}}{{end}}
`

const systemPageTemplate = `
{{define "page"}}{{template "open" .}}
{{template "system" .System}}
{{template "close" .}}{{end}}
`

const notFoundTemplate = `
{{define "head"}}<meta http-equiv="refresh" content="{{.Delay}};url={{.BasePath}}/">{{end}}
{{define "page"}}{{template "open" .}}
<section class="not-found">
  <h1>Page not found</h1>
  <p class="redirecting">Taking you home...</p>
</section>
{{template "close" .}}{{end}}
`

// loginTemplate is written in two parts: "start" is flushed while the code
// is exchanged, then "done" or "failed" finishes the document.
const loginTemplate = `
{{define "start"}}{{template "open" .}}
<section id="login-loading">{{template "loading"}}</section>
{{end}}

{{define "done"}}
<script>location.replace({{.Target}});</script>
<noscript><meta http-equiv="refresh" content="0;url={{.Target}}"><a href="{{.Target}}">Continue</a></noscript>
{{template "close" .}}{{end}}

{{define "failed"}}
<style>#login-loading { display: none; }</style>
{{template "loginfailed" .}}
{{template "close" .}}{{end}}

{{define "page"}}{{template "open" .}}
{{template "loginfailed" .}}
{{template "close" .}}{{end}}
`

const (
	botAvatarURL = "https://cdn.discordapp.com/avatars/466378653216014359/6ca415864e7886408035d96a4d2fe876.png"
	inviteURL    = "https://discordapp.com/oauth2/authorize?client_id=466378653216014359&scope=bot&permissions=536995904"
)

const styleCSS = `:root { --fg: #1d1d1f; --muted: #6e6e73; --accent: #5865f2; }
* { box-sizing: border-box; }
body { margin: 0; font-family: system-ui, -apple-system, "Segoe UI", sans-serif; color: var(--fg); background: #fafafa; }
main { max-width: 48rem; margin: 0 auto; padding: 2rem 1rem; min-height: 80vh; }
footer { text-align: center; padding: 1rem; color: var(--muted); }
footer a { color: var(--muted); }
a.button, button { display: inline-block; padding: .5rem 1rem; border-radius: .375rem; border: 0; background: var(--accent); color: #fff; text-decoration: none; cursor: pointer; }
.home { text-align: center; }
.bot-avatar { width: 8rem; height: 8rem; border-radius: 50%; }
.token-form { margin-top: 1.5rem; display: flex; flex-direction: column; align-items: center; gap: .5rem; }
.error { color: #c62828; }
.avatar { width: 4rem; height: 4rem; border-radius: 50%; object-fit: cover; flex: none; }
header.system { display: flex; gap: 1rem; align-items: center; }
header.system .avatar { width: 6rem; height: 6rem; }
.system-tag { color: var(--muted); margin: 0; }
.members { display: grid; gap: 1rem; margin-top: 2rem; }
.member { display: flex; gap: 1rem; padding: 1rem; background: #fff; border-left: 4px solid #ddd; border-radius: .375rem; }
.member-name { margin: 0; min-height: 1.2em; }
.member-pronouns, .member-birthday, .member-color { margin: .25rem 0; color: var(--muted); }
.swatch { display: inline-block; width: .8em; height: .8em; margin-right: .4em; border-radius: 2px; vertical-align: middle; }
.loading { display: flex; gap: .75rem; align-items: center; justify-content: center; padding: 3rem; color: var(--muted); }
.spinner { width: 1.5rem; height: 1.5rem; border: 3px solid #ddd; border-top-color: var(--accent); border-radius: 50%; animation: spin 1s linear infinite; }
@keyframes spin { to { transform: rotate(360deg); } }
.not-found { text-align: center; }
.not-found .redirecting { opacity: 0; animation: reveal 0s linear 1.5s forwards; }
@keyframes reveal { to { opacity: 1; } }
.failed { text-align: center; }
`
