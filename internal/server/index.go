package server

// indexHTML is the browser client. It forwards input over the websocket
// and swaps in whatever the session sends back.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>graphview</title>
<style>
html, body { margin: 0; height: 100%; font-family: sans-serif; }
#view { position: absolute; inset: 0; overflow: hidden; cursor: grab; touch-action: none; }
#view.dragging { cursor: grabbing; }
#status { position: absolute; right: 8px; bottom: 8px; color: #888; font-size: 12px; }
</style>
</head>
<body>
<div id="view"></div>
<div id="status">connecting</div>
<script>
(function () {
  var view = document.getElementById("view");
  var status = document.getElementById("status");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");

  function send(msg) {
    if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(msg));
  }
  function local(ev) {
    var r = view.getBoundingClientRect();
    return { x: ev.clientX - r.left, y: ev.clientY - r.top };
  }
  function size() {
    return { type: "resize", width: view.clientWidth, height: view.clientHeight };
  }

  ws.onopen = function () {
    status.textContent = "connected";
    send(size());
    send({ type: "reset" });
  };
  ws.onclose = function () { status.textContent = "disconnected"; };
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    var svg = view.querySelector("svg");
    switch (msg.type) {
    case "render":
      view.innerHTML = msg.svg;
      svg = view.querySelector("svg");
      if (svg) {
        svg.setAttribute("width", "100%");
        svg.setAttribute("height", "100%");
        svg.setAttribute("viewBox", msg.viewBox);
      }
      break;
    case "viewbox":
      if (svg) svg.setAttribute("viewBox", msg.viewBox);
      break;
    case "error":
      status.textContent = msg.message;
      break;
    }
  };

  view.addEventListener("wheel", function (ev) {
    ev.preventDefault();
    var p = local(ev);
    send({ type: "wheel", x: p.x, y: p.y, deltaY: ev.deltaY });
  }, { passive: false });
  view.addEventListener("pointerdown", function (ev) {
    view.setPointerCapture(ev.pointerId);
    view.classList.add("dragging");
    var p = local(ev);
    send({ type: "pointerdown", x: p.x, y: p.y });
  });
  view.addEventListener("pointermove", function (ev) {
    if (!view.classList.contains("dragging")) return;
    var p = local(ev);
    send({ type: "pointermove", x: p.x, y: p.y });
  });
  function up() {
    view.classList.remove("dragging");
    send({ type: "pointerup" });
  }
  view.addEventListener("pointerup", up);
  view.addEventListener("pointercancel", up);
  view.addEventListener("dblclick", function () { send({ type: "center" }); });
  new ResizeObserver(function () { send(size()); }).observe(view);
})();
</script>
</body>
</html>
`
